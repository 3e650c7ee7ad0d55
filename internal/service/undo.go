package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"catat-worker/internal/apperr"
	"catat-worker/internal/models"
)

const msgNothingToUndo = "ℹ️ Tidak ada transaksi terakhir yang dapat dihapus."

var undoPhrases = map[string]bool{
	"hapus terakhir":           true,
	"hapus_transaksi_terakhir": true,
}

func isUndoPhrase(text string) bool {
	return undoPhrases[strings.ToLower(strings.TrimSpace(text))]
}

// undoLast removes the tenant's most recent batch for f from the ledger and forgets it.
// An expired or missing batch is reported as nothing to undo.
func (s *MessageService) undoLast(ctx context.Context, phone string, f models.Feature) (string, error) {
	batch, err := s.undo.Get(ctx, phone, f)
	if err != nil {
		s.logger.Error("Failed to read undo batch", zap.String("phone", phone), zap.Error(err))
		return "", apperr.ConfigPersistence(err)
	}
	if batch == nil {
		return msgNothingToUndo, nil
	}

	removed, err := s.writer.Remove(ctx, f, batch.Rows)
	if err != nil {
		return "", err
	}
	if err := s.undo.Clear(ctx, phone, f); err != nil {
		s.logger.Warn("Failed to clear undo batch", zap.String("phone", phone), zap.Error(err))
	}

	s.logger.Info("Undo applied",
		zap.String("phone", phone),
		zap.String("feature", string(f)),
		zap.Int("cached", len(batch.Rows)),
		zap.Int("removed", removed),
	)
	if removed == 0 {
		return "ℹ️ Transaksi terakhir sudah tidak ada di spreadsheet.", nil
	}
	return fmt.Sprintf("✅ %d transaksi terakhir berhasil dihapus dari spreadsheet %s.", removed, f.Label()), nil
}
