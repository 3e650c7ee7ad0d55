package service

import (
	"fmt"
	"strings"

	"catat-worker/internal/apperr"
	"catat-worker/internal/feature"
	"catat-worker/internal/format"
	"catat-worker/internal/models"
	"catat-worker/internal/money"
)

const (
	replySeparator = "\n\n━━━━━━━━━━━━━━━━\n\n"
	failureMarker  = "❌ "
	msgServerError = "Terjadi kesalahan server. Silakan coba lagi nanti."
	msgNoFeatures  = "Belum ada fitur yang aktif untuk nomor Anda.\nHubungi admin untuk aktivasi."
)

func confirmation(f models.Feature, entries []models.LedgerEntry, skipped int) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		if f == models.FeaturePreciousMetal {
			parts[i] = metalConfirmation(e.Transaction)
		} else {
			parts[i] = expenseConfirmation(e.Transaction)
		}
	}
	reply := strings.Join(parts, replySeparator)
	if skipped > 0 {
		reply += fmt.Sprintf("\n\n⚠️ %d item tidak dapat dibaca dan dilewati.", skipped)
	}
	return reply
}

func metalConfirmation(tx models.Transaction) string {
	return fmt.Sprintf("✅ Transaksi berhasil dicatat!\n\n"+
		"📅 Tanggal: %s\n"+
		"🏷️ Jenis LM: %s\n"+
		"⚖️ Berat: %sg\n"+
		"💰 Nominal: %s\n"+
		"🔢 Qty: %d\n"+
		"📊 Tabel: %s",
		format.Date(tx.Date), tx.Category, money.FormatNumber(tx.Weight),
		money.FormatRupiah(tx.Amount), tx.Quantity, tx.Goal)
}

func expenseConfirmation(tx models.Transaction) string {
	note := tx.Note
	if strings.TrimSpace(note) == "" {
		note = "Tidak ada"
	}
	return fmt.Sprintf("✅ Transaksi dicatat!\n\n"+
		"📅 Tanggal: %s\n"+
		"📋 Kategori: %s\n"+
		"💰 Nominal: %s\n"+
		"📝 Keterangan: %s",
		format.ShortDate(tx.Date), tx.Category, money.FormatRupiahCents(tx.Amount), note)
}

func pendingReply(f models.Feature, minutes int) string {
	return fmt.Sprintf("📝 Informasi transaksi %s disimpan.\n"+
		"Kirim foto bukti pembelian dalam %d menit untuk melengkapi transaksi ini.", f.Label(), minutes)
}

func disambiguationMessage() string {
	var b strings.Builder
	b.WriteString("Anda terdaftar untuk lebih dari satu fitur. Harap gunakan pembeda:\n")
	for _, f := range models.AllFeatures {
		fmt.Fprintf(&b, "%s <pesan> untuk %s\n", feature.Prefix(f), f.Label())
	}
	b.WriteString("\nContoh: lm: Antam 5g 5000k 1 Dana Darurat")
	return b.String()
}

// failureReply every failure becomes one marked reply; untyped errors get the generic text
func failureReply(err error) string {
	return failureMarker + apperr.UserMessage(err, msgServerError)
}
