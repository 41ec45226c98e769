// Package models defines the client-side document model and the status
// types reported for the cloud container.
package models

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/seedkeeper/internal/common"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// MaxLabelLength is the longest label, in runes, a document may carry.
const MaxLabelLength = 64

// MaxFilenameLength is the longest encoded filename, in bytes. The soft-deleted
// placeholder form ".<name>.delete.icloud" must still fit in 255 bytes.
const MaxFilenameLength = 255 - len(common.DeletedSuffix) - len(common.PlaceholderSuffix) - 1

var (
	filenamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+={0,2}` + common.FilenameSeparator + `[A-Za-z0-9_-]+={0,2}(` + regexp.QuoteMeta(common.DeletedSuffix) + `)?$`)
	singleLine      = regexp.MustCompile(`^[^\r\n]*$`)
)

// Document is a wallet document stored in the cloud container. Only the file
// is durable; a Document is rebuilt from its path whenever it is listed.
type Document struct {
	// ID is generated per construction and is not stable across listings.
	ID uuid.UUID

	// Path is the location of the document file. For a placeholder of a
	// not-yet-downloaded file it is the path the file will have once present.
	Path string

	// Name is the decoded label, or common.UndefinedName.
	Name string

	// CreatedAt is the decoded creation time; zero when undecodable.
	CreatedAt time.Time

	// Downloaded is false for placeholders of files still in the cloud.
	Downloaded bool
}

// NewDocument builds a Document from a file path. It never fails: a filename
// that does not decode yields Name == common.UndefinedName.
func NewDocument(path string) Document {
	d := Document{ID: uuid.New(), Path: filepath.Clean(path), Downloaded: true}

	if name, ok := PlaceholderTarget(filepath.Base(d.Path)); ok {
		d.Path = filepath.Join(filepath.Dir(d.Path), name)
		d.Downloaded = false
	}

	_, label, createdAt, err := ParseFilename(d.Filename())
	if err != nil {
		d.Name = common.UndefinedName
		return d
	}
	d.Name = label
	d.CreatedAt = createdAt
	return d
}

// Filename is the base name of the document file.
func (d Document) Filename() string {
	return filepath.Base(d.Path)
}

// Key identifies the document for deduplication.
func (d Document) Key() string {
	return filepath.Clean(d.Path)
}

// Defined reports whether the filename decoded.
func (d Document) Defined() bool {
	return !d.CreatedAt.IsZero()
}

// Secret decodes the entropy carried in the filename.
func (d Document) Secret() ([]byte, error) {
	secret, _, _, err := ParseFilename(d.Filename())
	return secret, err
}

// RenamedPath returns the path the document gets when relabelled. The secret
// and creation time are preserved.
func (d Document) RenamedPath(label string) (string, error) {
	secret, _, createdAt, err := ParseFilename(d.Filename())
	if err != nil {
		return "", err
	}
	name, err := EncodeFilename(secret, label, createdAt)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(d.Path), name), nil
}

func (d Document) String() string {
	if !d.Defined() {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.CreatedAt.Format(time.DateTime))
}

// EncodeFilename builds "<b64(secret)>@<b64(label epoch)>".
func EncodeFilename(secret []byte, label string, createdAt time.Time) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: empty secret", common.ErrInvalidFilename)
	}
	if err := ValidateLabel(label); err != nil {
		return "", err
	}
	suffix := label + " " + strconv.FormatInt(createdAt.Unix(), 10)
	name := encodeSegment(secret) + common.FilenameSeparator + encodeSegment([]byte(suffix))
	if len(name) > MaxFilenameLength {
		return "", fmt.Errorf("%w: encoded filename is %d bytes, limit is %d", common.ErrInvalidLabel, len(name), MaxFilenameLength)
	}
	return name, nil
}

// ParseFilename decodes a filename produced by EncodeFilename. A trailing
// deletion marker is ignored.
func ParseFilename(name string) (secret []byte, label string, createdAt time.Time, err error) {
	if !MatchesPattern(name) {
		return nil, "", time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidFilename, name)
	}
	name = strings.TrimSuffix(name, common.DeletedSuffix)

	secretPart, suffixPart, _ := strings.Cut(name, common.FilenameSeparator)

	secret, err = decodeSegment(secretPart)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("%w: secret: %v", common.ErrInvalidFilename, err)
	}
	suffix, err := decodeSegment(suffixPart)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("%w: label: %v", common.ErrInvalidFilename, err)
	}

	i := strings.LastIndexByte(string(suffix), ' ')
	if i <= 0 {
		return nil, "", time.Time{}, fmt.Errorf("%w: no timestamp", common.ErrInvalidFilename)
	}
	epoch, err := strconv.ParseInt(string(suffix[i+1:]), 10, 64)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("%w: timestamp: %v", common.ErrInvalidFilename, err)
	}

	return secret, string(suffix[:i]), time.Unix(epoch, 0), nil
}

// MatchesPattern reports whether name has the document filename shape,
// including soft-deleted names.
func MatchesPattern(name string) bool {
	return filenamePattern.MatchString(name)
}

// IsDeleted reports whether name carries the deletion marker.
func IsDeleted(name string) bool {
	return strings.HasSuffix(name, common.DeletedSuffix)
}

// PlaceholderTarget maps ".<name>.icloud" to <name>. A name too short to
// carry a non-empty <name>, such as ".icloud" or "..icloud", is rejected.
func PlaceholderTarget(name string) (string, bool) {
	if len(name) <= len(common.PlaceholderSuffix)+1 {
		return "", false
	}
	if !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, common.PlaceholderSuffix) {
		return "", false
	}
	return name[1 : len(name)-len(common.PlaceholderSuffix)], true
}

// ValidateLabel checks a user supplied label.
func ValidateLabel(label string) error {
	err := validation.Validate(label,
		validation.Required,
		validation.RuneLength(1, MaxLabelLength),
		validation.Match(singleLine),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidLabel, err)
	}
	return nil
}

// Merge combines document lists keyed by path; for duplicate paths the entry
// from the later list wins. The result is sorted with SortByCreation.
func Merge(lists ...[]Document) []Document {
	index := make(map[string]int)
	var out []Document
	for _, list := range lists {
		for _, d := range list {
			if i, ok := index[d.Key()]; ok {
				out[i] = d
				continue
			}
			index[d.Key()] = len(out)
			out = append(out, d)
		}
	}
	SortByCreation(out)
	return out
}

// SortByCreation orders documents oldest first; ties and undecodable
// documents are ordered by filename.
func SortByCreation(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Filename() < b.Filename()
	})
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
