package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"catat-worker/internal/apperr"
	"catat-worker/internal/format"
	"catat-worker/internal/models"
)

// adminCommand one entry of the admin grammar: keyword(s) + ":" → parser → handler
type adminCommand struct {
	name     string
	keywords []string
	denied   string
	parse    func(args string) (commandArgs, error)
	handle   func(s *MessageService, ctx context.Context, admin string, args commandArgs) (string, error)
}

type commandArgs struct {
	Phone    string
	Features []models.Feature
}

var commandTable = []adminCommand{
	{
		name:     "register",
		keywords: []string{"REGISTER", "DAFTAR"},
		denied:   "Hanya admin yang dapat mendaftarkan nomor baru.",
		parse:    parseRegister,
		handle:   (*MessageService).register,
	},
	{
		name:     "update_features",
		keywords: []string{"UPDATE_FEATURES", "UPDATE_FITUR"},
		denied:   "Hanya admin yang dapat mengubah fitur pelanggan.",
		parse:    parseUpdateFeatures,
		handle:   (*MessageService).updateFeatures,
	},
}

var (
	featuresClause = regexp.MustCompile(`\b(?:FEATURES|FITUR)\s*:`)
	validPhone     = regexp.MustCompile(`^628[0-9]{8,11}$`)
	phoneNoise     = strings.NewReplacer(" ", "", "-", "", "+", "", "(", "", ")", "")
)

const (
	registerUsage = "Format: REGISTER : <nomor> [FEATURES : <fitur> ...]\n" +
		"Contoh: REGISTER : 081234567890 FEATURES : logam_mulia keuangan"
	updateUsage = "Format: UPDATE_FEATURES : <nomor> <fitur> ...\n" +
		"Contoh: UPDATE_FEATURES : 6281234567890 keuangan"
)

// matchCommand finds the table entry whose keyword (case-sensitive) followed by ":" opens text
func matchCommand(text string) (*adminCommand, string, bool) {
	text = strings.TrimSpace(text)
	for i := range commandTable {
		cmd := &commandTable[i]
		for _, kw := range cmd.keywords {
			if !strings.HasPrefix(text, kw) {
				continue
			}
			rest := strings.TrimLeft(text[len(kw):], " \t")
			if strings.HasPrefix(rest, ":") {
				return cmd, strings.TrimSpace(rest[1:]), true
			}
		}
	}
	return nil, "", false
}

func parseRegister(args string) (commandArgs, error) {
	head, tail := args, ""
	clause := featuresClause.FindStringIndex(args)
	if clause != nil {
		head, tail = args[:clause[0]], args[clause[1]:]
	}
	if strings.TrimSpace(head) == "" {
		return commandArgs{}, apperr.Validation("Nomor telepon tidak ditemukan.\n\n" + registerUsage)
	}
	phone, err := NormalizePhone(head)
	if err != nil {
		return commandArgs{}, err
	}

	features := []models.Feature{models.FeaturePreciousMetal}
	if clause != nil {
		features, err = parseFeatureList(tail)
		if err != nil {
			return commandArgs{}, err
		}
		if len(features) == 0 {
			return commandArgs{}, apperr.Validation("Daftar fitur kosong.\n\n" + registerUsage)
		}
	}
	return commandArgs{Phone: phone, Features: features}, nil
}

func parseUpdateFeatures(args string) (commandArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return commandArgs{}, apperr.Validation("Nomor dan fitur wajib diisi.\n\n" + updateUsage)
	}
	phone, err := NormalizePhone(fields[0])
	if err != nil {
		return commandArgs{}, err
	}
	features, err := parseFeatureList(strings.Join(fields[1:], " "))
	if err != nil {
		return commandArgs{}, err
	}
	return commandArgs{Phone: phone, Features: features}, nil
}

// parseFeatureList accepts space or comma separated names; duplicates collapse
func parseFeatureList(s string) ([]models.Feature, error) {
	var out []models.Feature
	seen := make(map[models.Feature]bool)
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		f, err := models.ParseFeature(name)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf(
				"Fitur \"%s\" tidak dikenali. Gunakan: logam_mulia atau keuangan.", name))
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// NormalizePhone strips formatting, rewrites a leading 0 to 62 and validates the result
func NormalizePhone(raw string) (string, error) {
	p := phoneNoise.Replace(strings.TrimSpace(raw))
	p = strings.TrimSuffix(p, "@s.whatsapp.net")
	if strings.HasPrefix(p, "0") {
		p = "62" + p[1:]
	}
	if !validPhone.MatchString(p) {
		return "", apperr.Validation(fmt.Sprintf(
			"Format nomor tidak valid: %s\nGunakan format 08xxxxxxxxxx atau 628xxxxxxxxxx.", raw))
	}
	return p, nil
}

func (s *MessageService) register(ctx context.Context, admin string, args commandArgs) (string, error) {
	now := s.now()
	expiry := now.Add(s.subscription)
	_, err := s.directory.Mutate(ctx, func(dir *models.Directory) error {
		if dir.Find(args.Phone) != nil {
			return apperr.Validation(fmt.Sprintf("Nomor %s sudah terdaftar.", args.Phone))
		}
		dir.Customers = append(dir.Customers, models.Tenant{
			PhoneNumber:        args.Phone,
			Whitelisted:        true,
			SubscriptionExpiry: expiry,
			Features:           args.Features,
			RegisteredBy:       admin,
			RegisteredAt:       now,
			LastActive:         now,
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Nomor %s berhasil didaftarkan!\n\nFitur: %s\nBerlaku hingga: %s",
		args.Phone, featureLabels(args.Features), format.Date(expiry.In(s.loc))), nil
}

func (s *MessageService) updateFeatures(ctx context.Context, _ string, args commandArgs) (string, error) {
	_, err := s.directory.Mutate(ctx, func(dir *models.Directory) error {
		t := dir.Find(args.Phone)
		if t == nil {
			return apperr.Validation(fmt.Sprintf("Nomor %s belum terdaftar.", args.Phone))
		}
		t.Features = args.Features
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Fitur untuk nomor %s berhasil diperbarui: %s", args.Phone, featureLabels(args.Features)), nil
}

func featureLabels(fs []models.Feature) string {
	labels := make([]string, len(fs))
	for i, f := range fs {
		labels[i] = f.Label()
	}
	return strings.Join(labels, ", ")
}
