package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/seedkeeper/internal/client/models"
	"github.com/dmitrijs2005/seedkeeper/internal/common"
	"github.com/dmitrijs2005/seedkeeper/internal/cryptox"
)

// List prints the documents with their 1-based numbers.
func (a *App) List(_ context.Context, _ []string) error {
	if s := a.store.Status(); s != models.AccountAvailable {
		fmt.Fprintf(a.out, "Cloud account is %s; no documents available.\n", s)
		return nil
	}

	docs := a.store.Documents()
	if len(docs) == 0 {
		fmt.Fprintln(a.out, "No documents.")
		return nil
	}
	for i, d := range docs {
		line := fmt.Sprintf("%3d  %s", i+1, d.Name)
		if d.Defined() {
			line += "  " + d.CreatedAt.Local().Format(time.DateTime)
		}
		if !d.Downloaded {
			line += "  (in cloud)"
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// Create generates fresh entropy and stores it as a new document.
func (a *App) Create(ctx context.Context, args []string) error {
	label, err := a.label(args, "Enter wallet name")
	if err != nil {
		return err
	}

	entropy, err := cryptox.NewEntropy(cryptox.DefaultEntropyBits)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(entropy)

	return a.save(ctx, label, entropy)
}

// Import stores the entropy of an existing recovery phrase.
func (a *App) Import(ctx context.Context, args []string) error {
	label, err := a.label(args, "Enter wallet name")
	if err != nil {
		return err
	}

	phrase, err := GetSecret(a.out, "Enter recovery phrase: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(phrase)

	entropy, err := cryptox.EntropyFromMnemonic(string(phrase))
	if err != nil {
		return err
	}
	defer common.WipeByteArray(entropy)

	return a.save(ctx, label, entropy)
}

func (a *App) save(ctx context.Context, label string, entropy []byte) error {
	doc, err := a.store.Create(ctx, label, entropy)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s\n", doc)
	return nil
}

// Rename relabels a document.
func (a *App) Rename(ctx context.Context, args []string) error {
	doc, rest, err := a.pick(args)
	if err != nil {
		return err
	}
	label, err := a.label(rest, "Enter new name")
	if err != nil {
		return err
	}

	renamed, err := a.store.Rename(ctx, doc, label)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Renamed %s to %s\n", doc.Name, renamed.Name)
	return nil
}

// Delete removes a document after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	doc, _, err := a.pick(args)
	if err != nil {
		return err
	}

	ok, err := GetConfirmation(a.reader, fmt.Sprintf("Delete %s? The recovery phrase will be lost.", doc.Name), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.store.Delete(ctx, doc); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", doc.Name)
	return nil
}

// Show prints the recovery phrase of a document.
func (a *App) Show(_ context.Context, args []string) error {
	doc, _, err := a.pick(args)
	if err != nil {
		return err
	}

	entropy, err := doc.Secret()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(entropy)

	phrase, err := cryptox.Mnemonic(entropy)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n%s\n", doc, phrase)
	return nil
}

// Status prints the account status, or the upload status of one document.
func (a *App) Status(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "Account:   %s\n", a.store.Status())
		if dir := a.store.ContainerDir(); dir != "" {
			fmt.Fprintf(a.out, "Container: %s\n", dir)
		}
		fmt.Fprintf(a.out, "Documents: %d\n", len(a.store.Documents()))
		return nil
	}

	doc, _, err := a.pick(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", doc.Name, a.store.FileStatus(ctx, doc))
	return nil
}

// Sync uploads pending changes now.
func (a *App) Sync(ctx context.Context, _ []string) error {
	report, err := a.store.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %d, deleted %d, failed %d\n", report.Uploaded, report.Deleted, report.Failed)
	return nil
}

// Purge removes leftover soft-deleted files.
func (a *App) Purge(ctx context.Context, _ []string) error {
	n, err := a.store.Purge(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %d deleted file(s)\n", n)
	return nil
}

// pick resolves args[0], prompting when absent. A number selects from the
// list; anything else is matched against labels.
func (a *App) pick(args []string) (models.Document, []string, error) {
	var (
		raw  string
		rest []string
		err  error
	)
	if len(args) > 0 {
		raw, rest = args[0], args[1:]
	} else {
		raw, err = GetSimpleText(a.reader, "Enter document number or label", a.out)
		if err != nil {
			return models.Document{}, nil, err
		}
	}

	var doc models.Document
	if n, convErr := strconv.Atoi(raw); convErr == nil {
		doc, err = a.store.Index(n)
	} else {
		doc, err = a.store.Find(raw)
	}
	if err != nil {
		return models.Document{}, nil, err
	}
	return doc, rest, nil
}

// label joins args into a label, prompting when empty.
func (a *App) label(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	label, err := GetSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if err := models.ValidateLabel(label); err != nil {
		return "", err
	}
	return label, nil
}
