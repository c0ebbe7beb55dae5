package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/gift"
	"github.com/hpungsan/curatr/internal/store"
)

// BackupSchemaVersion is written into every backup document.
const BackupSchemaVersion = "1.0"

// maxBackupSize bounds how much of a backup file Import reads.
const maxBackupSize = 16 << 20

// Backup is the on-disk export document.
type Backup struct {
	CuratrExport  bool             `json:"_curatr_export"`
	SchemaVersion string           `json:"schema_version"`
	ExportedAt    int64            `json:"exported_at"`
	Recipients    []gift.Recipient `json:"recipients"`
	Saved         []gift.SavedItem `json:"saved"`
}

// ExportInput contains parameters for Export.
type ExportInput struct {
	// Path is optional; default <export dir>/memorybox-<timestamp>.json
	Path string
}

// ExportOutput reports a finished export.
type ExportOutput struct {
	Path       string `json:"path"`
	Recipients int    `json:"recipients"`
	Saved      int    `json:"saved"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes both lists to one JSON document. The file is written to a
// temp name and renamed into place, so an existing file survives a failure.
func Export(ctx context.Context, env *Env, input ExportInput) (*ExportOutput, error) {
	now := env.Now()

	allowed, err := env.AllowedDirs()
	if err != nil {
		return nil, err
	}
	path := input.Path
	if path == "" {
		if env.ExportDir == "" {
			return nil, errors.NewInvalidRequest("path is required")
		}
		path = filepath.Join(env.ExportDir, "memorybox-"+now.Format("2006-01-02T150405")+BackupExt)
	}
	if err := ValidatePath(path, PathCheckWrite, allowed); err != nil {
		return nil, err
	}
	if env.ExportDir != "" && filepath.Dir(filepath.Clean(path)) == filepath.Clean(env.ExportDir) {
		if err := os.MkdirAll(env.ExportDir, 0o700); err != nil {
			return nil, errors.NewStorageUnavailable(err)
		}
	}

	var doc Backup
	err = env.Store.View(ctx, func(snap store.Snapshot) error {
		doc = Backup{
			CuratrExport:  true,
			SchemaVersion: BackupSchemaVersion,
			ExportedAt:    now.Unix(),
			Recipients:    snap.Recipients,
			Saved:         snap.Saved,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, err
	}

	env.log().Info("memory box exported",
		zap.String("path", path),
		zap.Int("recipients", len(doc.Recipients)),
		zap.Int("saved", len(doc.Saved)),
	)
	return &ExportOutput{
		Path:       path,
		Recipients: len(doc.Recipients),
		Saved:      len(doc.Saved),
		ExportedAt: doc.ExportedAt,
	}, nil
}

func writeFileAtomic(path string, data []byte) error {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tmp := path + "." + hex.EncodeToString(suffix) + ".tmp"

	f, err := createNoFollow(tmp)
	if err != nil {
		return errors.As(err)
	}
	committed := false
	defer func() {
		if f != nil {
			f.Close()
		}
		if !committed {
			os.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := f.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := f.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	f = nil

	if isSymlink(path) {
		return errors.NewInvalidRequest("export path is a symlink")
	}
	if err := os.Rename(tmp, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}
	committed = true
	return nil
}

// ImportMode controls how a backup combines with existing data.
type ImportMode string

const (
	// ImportModeReplace overwrites both lists with the backup.
	ImportModeReplace ImportMode = "replace"
	// ImportModeMerge adds unknown recipients and new (item, recipient) pairs.
	ImportModeMerge ImportMode = "merge"
)

// ImportInput contains parameters for Import.
type ImportInput struct {
	Path string
	// Mode defaults to merge
	Mode ImportMode
}

// ImportOutput reports what an import changed.
type ImportOutput struct {
	Mode               ImportMode `json:"mode"`
	RecipientsImported int        `json:"recipients_imported"`
	SavedImported      int        `json:"saved_imported"`
	Skipped            int        `json:"skipped"`
}

// Import loads a backup written by Export (or a raw dump of the two browser
// keys with the same field names).
func Import(ctx context.Context, env *Env, input ImportInput) (*ImportOutput, error) {
	mode := input.Mode
	if mode == "" {
		mode = ImportModeMerge
	}
	if mode != ImportModeReplace && mode != ImportModeMerge {
		return nil, errors.NewInvalidRequest("mode must be one of: replace, merge")
	}

	allowed, err := env.AllowedDirs()
	if err != nil {
		return nil, err
	}
	if err := ValidatePath(input.Path, PathCheckRead, allowed); err != nil {
		return nil, err
	}

	doc, err := readBackup(input.Path)
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{Mode: mode}
	err = env.Store.Update(ctx, func(snap *store.Snapshot) error {
		if mode == ImportModeReplace {
			if err := checkRecipientRefs(doc.Saved, doc.Recipients); err != nil {
				return err
			}
			snap.Recipients = doc.Recipients
			snap.Saved = doc.Saved
			out.RecipientsImported = len(doc.Recipients)
			out.SavedImported = len(doc.Saved)
			return nil
		}

		for _, r := range doc.Recipients {
			if _, ok := findRecipient(snap.Recipients, r.ID); ok {
				out.Skipped++
				continue
			}
			snap.Recipients = append(snap.Recipients, r)
			out.RecipientsImported++
		}
		if err := checkRecipientRefs(doc.Saved, snap.Recipients); err != nil {
			return err
		}

		type pair struct {
			item      int
			recipient string
		}
		seen := make(map[pair]bool, len(snap.Saved))
		for _, s := range snap.Saved {
			seen[pair{s.ID, s.RecipientID}] = true
		}
		for _, s := range doc.Saved {
			k := pair{s.ID, s.RecipientID}
			if seen[k] {
				out.Skipped++
				continue
			}
			seen[k] = true
			snap.Saved = append(snap.Saved, s)
			out.SavedImported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	env.log().Info("memory box imported",
		zap.String("path", input.Path),
		zap.String("mode", string(mode)),
		zap.Int("recipients", out.RecipientsImported),
		zap.Int("saved", out.SavedImported),
		zap.Int("skipped", out.Skipped),
	)
	return out, nil
}

// checkRecipientRefs rejects saved entries whose recipient is not in
// recipients, the list the import would leave behind.
func checkRecipientRefs(saved []gift.SavedItem, recipients []gift.Recipient) error {
	known := make(map[string]bool, len(recipients))
	for _, r := range recipients {
		known[r.ID] = true
	}
	for i, s := range saved {
		if !known[s.RecipientID] {
			return errors.NewInvalidRequest(fmt.Sprintf("saved[%d]: recipientId %q not in backup or store", i, s.RecipientID))
		}
	}
	return nil
}

func readBackup(path string) (*Backup, error) {
	f, err := openNoFollow(path)
	if err != nil {
		return nil, errors.As(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBackupSize+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(data) > maxBackupSize {
		return nil, errors.NewInvalidRequest("import file exceeds 16 MiB")
	}

	var doc Backup
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid backup JSON: %v", err))
	}
	if doc.SchemaVersion != "" && doc.SchemaVersion != BackupSchemaVersion {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported backup schema_version %q", doc.SchemaVersion))
	}
	for i, r := range doc.Recipients {
		if r.ID == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("recipients[%d]: missing id", i))
		}
	}
	for i, s := range doc.Saved {
		if s.RecipientID == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("saved[%d]: missing recipientId", i))
		}
		if _, ok := gift.CatalogItem(s.ID); !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("saved[%d]: item %d is not in the catalog", i, s.ID))
		}
	}
	if doc.Recipients == nil {
		doc.Recipients = []gift.Recipient{}
	}
	if doc.Saved == nil {
		doc.Saved = []gift.SavedItem{}
	}
	return &doc, nil
}
