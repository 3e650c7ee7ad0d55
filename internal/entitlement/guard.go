// Package entitlement gates domain access per tenant.
package entitlement

import (
	"fmt"
	"time"

	"catat-worker/internal/apperr"
	"catat-worker/internal/models"
)

const (
	MsgNotRegistered = "Nomor Anda tidak terdaftar sebagai pelanggan.\nHubungi admin untuk mendaftarkan nomor Anda."
	MsgNotAuthorized = "Akun Anda tidak diizinkan untuk mengakses fitur ini.\nHubungi admin untuk aktivasi."
	MsgExpired       = "Langganan Anda telah kedaluwarsa.\nPerpanjang langganan untuk melanjutkan."
	exampleLink      = "https://docs.google.com/spreadsheets/d/1lPo7qP8szZr9WgDd_H82wtbK-p6cgyjOW2N_CvGGQZg/edit#gid=0"
)

// Guard runs the ordered entitlement checks. It never mutates the directory.
type Guard struct {
	now func() time.Time
}

func NewGuard(now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{now: now}
}

// Authorize returns the tenant when phone may use domain f; the first failing check wins.
func (g *Guard) Authorize(phone string, dir *models.Directory, f models.Feature) (*models.Tenant, error) {
	t := dir.Find(phone)
	if t == nil {
		return nil, apperr.Entitlement(MsgNotRegistered)
	}
	if !t.Whitelisted {
		return nil, apperr.Entitlement(MsgNotAuthorized)
	}
	if !t.SubscriptionExpiry.After(g.now()) {
		return nil, apperr.Entitlement(MsgExpired)
	}
	if !t.HasFeature(f) {
		return nil, apperr.Entitlement(fmt.Sprintf("Fitur %s belum aktif untuk nomor Anda.\nHubungi admin untuk mengaktifkan.", f.Label()))
	}
	if t.LedgerRef(f) == "" {
		return nil, apperr.Entitlement(LedgerNotConfiguredMessage(phone, f))
	}
	return t, nil
}

// LedgerNotConfiguredMessage includes the exact setup command the tenant should send
func LedgerNotConfiguredMessage(phone string, f models.Feature) string {
	return fmt.Sprintf("Spreadsheet untuk fitur %s belum diatur!\n\n"+
		"Silakan kirim link spreadsheet Anda dengan format:\n"+
		"SPREADSHEET %s: %s [link]\n\n"+
		"Contoh link:\n%s", f.Label(), f.Tag(), phone, exampleLink)
}
