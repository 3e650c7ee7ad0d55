package models

import "time"

// Admin the single operator identity
type Admin struct {
	PhoneNumber string `json:"phoneNumber"`
}

// Tenant a registered customer keyed by phone number
type Tenant struct {
	PhoneNumber        string             `json:"phoneNumber"`
	Whitelisted        bool               `json:"whitelisted"`
	SubscriptionExpiry time.Time          `json:"subscriptionExp"`
	Features           []Feature          `json:"features"`
	LedgerRefs         map[Feature]string `json:"spreadsheets,omitempty"`
	RegisteredBy       string             `json:"registeredBy,omitempty"`
	RegisteredAt       time.Time          `json:"registeredAt"`
	LastActive         time.Time          `json:"lastActive"`
}

// HasFeature reports whether f is enabled
func (t *Tenant) HasFeature(f Feature) bool {
	for _, x := range t.Features {
		if x == f {
			return true
		}
	}
	return false
}

// LedgerRef returns the configured ledger for f, "" when absent
func (t *Tenant) LedgerRef(f Feature) string {
	if t.LedgerRefs == nil {
		return ""
	}
	return t.LedgerRefs[f]
}

// SetLedgerRef assigns the ledger for f
func (t *Tenant) SetLedgerRef(f Feature, ledgerID string) {
	if t.LedgerRefs == nil {
		t.LedgerRefs = make(map[Feature]string)
	}
	t.LedgerRefs[f] = ledgerID
}

// Directory the process-wide tenant configuration document.
// Version is the store's concurrency token and is not part of the document body.
type Directory struct {
	Admin     Admin    `json:"admin"`
	Customers []Tenant `json:"customers"`
	Version   int64    `json:"-"`
}

// IsAdmin reports whether phone is the admin identity
func (d *Directory) IsAdmin(phone string) bool {
	return d.Admin.PhoneNumber != "" && d.Admin.PhoneNumber == phone
}

// Find returns a pointer into Customers, nil when absent
func (d *Directory) Find(phone string) *Tenant {
	for i := range d.Customers {
		if d.Customers[i].PhoneNumber == phone {
			return &d.Customers[i]
		}
	}
	return nil
}

// Clone deep-copies the directory so a mutation attempt can be discarded
func (d *Directory) Clone() *Directory {
	out := &Directory{Admin: d.Admin, Version: d.Version, Customers: make([]Tenant, len(d.Customers))}
	for i, t := range d.Customers {
		c := t
		c.Features = append([]Feature(nil), t.Features...)
		if t.LedgerRefs != nil {
			c.LedgerRefs = make(map[Feature]string, len(t.LedgerRefs))
			for k, v := range t.LedgerRefs {
				c.LedgerRefs[k] = v
			}
		}
		out.Customers[i] = c
	}
	return out
}
