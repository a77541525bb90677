package compose

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// ValidationError is a problem the user has to fix before sending.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Attachment is a file read into memory for sending.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

// LoadAttachment reads path and guesses its content type from the extension,
// falling back to sniffing the content.
func LoadAttachment(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("reading attachment: %w", err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Attachment{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

type Draft struct {
	Recipients  Recipients
	Subject     string
	Body        string
	HTML        bool
	Attachments []Attachment
}

// IsValidToSend is true when there is at least one recipient and a
// non-blank subject.
func (d *Draft) IsValidToSend() bool {
	return d.Recipients.Total() > 0 && strings.TrimSpace(d.Subject) != ""
}

// Validate returns every problem with the draft joined together, or nil.
// maxAttachment limits each attachment; zero means no limit.
func (d *Draft) Validate(maxAttachment int64) error {
	var errs []error
	if d.Recipients.Total() == 0 {
		errs = append(errs, &ValidationError{Field: "recipients", Message: "add at least one recipient"})
	}
	if strings.TrimSpace(d.Subject) == "" {
		errs = append(errs, &ValidationError{Field: "subject", Message: "subject is required"})
	}
	if maxAttachment > 0 {
		for _, a := range d.Attachments {
			if a.Size() > maxAttachment {
				errs = append(errs, &ValidationError{
					Field: "attachments",
					Message: fmt.Sprintf("%s is %s, limit is %s",
						a.Filename, humanize.Bytes(uint64(a.Size())), humanize.Bytes(uint64(maxAttachment))),
				})
			}
		}
	}
	return errors.Join(errs...)
}
