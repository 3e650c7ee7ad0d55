package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"catat-worker/internal/apperr"
	"catat-worker/internal/entitlement"
	"catat-worker/internal/models"
)

var (
	ledgerLink = regexp.MustCompile(`/d/([A-Za-z0-9_-]{25,})`)
	featureTag = regexp.MustCompile(`(?i)\b(?:LEDGER|SPREADSHEET)\s+(LM|KEUANGAN)\s*:\s*([+0-9][0-9 -]*[0-9])?`)
	targetTag  = regexp.MustCompile(`(?i)\bUNTUK\s*:\s*([+0-9][0-9 -]*[0-9])`)
)

// ledgerLinkRequest what a ledger-link message asks for
type ledgerLinkRequest struct {
	LedgerID string
	Feature  models.Feature
	Target   string
}

// parseLedgerLink returns false when text carries no ledger link
func parseLedgerLink(text, sender string) (ledgerLinkRequest, bool, error) {
	m := ledgerLink.FindStringSubmatch(text)
	if m == nil {
		return ledgerLinkRequest{}, false, nil
	}
	req := ledgerLinkRequest{LedgerID: m[1], Target: sender}

	if tag := featureTag.FindStringSubmatch(text); tag != nil {
		f, err := models.ParseFeature(tag[1])
		if err != nil {
			return ledgerLinkRequest{}, true, apperr.Validation("Tag spreadsheet tidak dikenali.")
		}
		req.Feature = f
		if tag[2] != "" {
			phone, err := NormalizePhone(tag[2])
			if err != nil {
				return ledgerLinkRequest{}, true, err
			}
			req.Target = phone
		}
	}
	if tt := targetTag.FindStringSubmatch(text); tt != nil {
		phone, err := NormalizePhone(tt[1])
		if err != nil {
			return ledgerLinkRequest{}, true, err
		}
		req.Target = phone
	}
	return req, true, nil
}

// linkLedger stores the ledger reference and provisions the ledger when the backend supports it.
// Only the admin may link a ledger for another number.
func (s *MessageService) linkLedger(ctx context.Context, dir *models.Directory, sender string, req ledgerLinkRequest) (string, error) {
	if req.Target != sender && !dir.IsAdmin(sender) {
		return "", apperr.Validation("Hanya admin yang dapat mengatur spreadsheet untuk nomor lain.")
	}

	var chosen models.Feature
	_, err := s.directory.Mutate(ctx, func(d *models.Directory) error {
		t := d.Find(req.Target)
		if t == nil {
			if req.Target == sender {
				return apperr.Entitlement(entitlement.MsgNotRegistered)
			}
			return apperr.Validation(fmt.Sprintf("Nomor %s belum terdaftar.", req.Target))
		}
		f := req.Feature
		if f == "" {
			if len(t.Features) != 1 {
				return apperr.Validation(ambiguousLinkMessage(req.Target))
			}
			f = t.Features[0]
		}
		if !t.HasFeature(f) {
			return apperr.Validation(fmt.Sprintf("Fitur %s tidak aktif untuk nomor %s.", f.Label(), req.Target))
		}
		t.SetLedgerRef(f, req.LedgerID)
		t.LastActive = s.now()
		chosen = f
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Ledger linked",
		zap.String("phone", req.Target),
		zap.String("feature", string(chosen)),
		zap.String("ledger_id", req.LedgerID),
	)
	if _, err := s.writer.Provision(ctx, chosen, req.LedgerID); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Spreadsheet %s untuk nomor %s berhasil diatur!\n\nSekarang Anda dapat mulai mencatat transaksi.",
		chosen.Label(), req.Target), nil
}

func ambiguousLinkMessage(phone string) string {
	var b strings.Builder
	b.WriteString("Nomor ini terdaftar untuk lebih dari satu fitur. Sertakan tag pada link:\n")
	for _, f := range models.AllFeatures {
		fmt.Fprintf(&b, "SPREADSHEET %s: %s [link]\n", f.Tag(), phone)
	}
	return strings.TrimRight(b.String(), "\n")
}
