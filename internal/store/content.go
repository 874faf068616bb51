package store

import (
	"errors"
	"strings"
)

// ErrEmptyContent is returned by NewContent when nothing would be sent.
var ErrEmptyContent = errors.New("message content is empty")

// AttachmentRef points at an uploaded (or uploading) file. ID is empty until
// the upload completes.
type AttachmentRef struct {
	ID          string
	FileName    string
	ContentType string
	Size        int64
}

// ContentKind is a bit set of the parts present in a Content.
type ContentKind uint8

const (
	HasText ContentKind = 1 << iota
	HasGIF
	HasAttachment
)

// Content is the body of a message: text, a GIF reference, an attachment, or
// any non-empty combination. Values built by NewContent are never empty; the
// zero Content only appears on server records that carry no body.
type Content struct {
	text       string
	gifURL     string
	attachment *AttachmentRef
}

// NewContent trims text and rejects a submission with no part present.
func NewContent(text, gifURL string, att *AttachmentRef) (Content, error) {
	c := Content{
		text:   strings.TrimSpace(text),
		gifURL: strings.TrimSpace(gifURL),
	}
	if att != nil {
		a := *att
		c.attachment = &a
	}
	if c.Kind() == 0 {
		return Content{}, ErrEmptyContent
	}
	return c, nil
}

// Kind returns which parts are present.
func (c Content) Kind() ContentKind {
	var k ContentKind
	if c.text != "" {
		k |= HasText
	}
	if c.gifURL != "" {
		k |= HasGIF
	}
	if c.attachment != nil {
		k |= HasAttachment
	}
	return k
}

func (c Content) IsEmpty() bool  { return c.Kind() == 0 }
func (c Content) Text() string   { return c.text }
func (c Content) GIFURL() string { return c.gifURL }
func (c Content) HasFile() bool  { return c.attachment != nil }

// Attachment returns a copy of the attachment reference.
func (c Content) Attachment() (AttachmentRef, bool) {
	if c.attachment == nil {
		return AttachmentRef{}, false
	}
	return *c.attachment, true
}

// WithAttachmentID returns c with the attachment id set once the upload has
// completed. Content without an attachment is returned unchanged.
func (c Content) WithAttachmentID(id string) Content {
	if c.attachment == nil {
		return c
	}
	a := *c.attachment
	a.ID = id
	c.attachment = &a
	return c
}

// Summary is a one-line rendering used by list previews and the CLI.
func (c Content) Summary() string {
	var parts []string
	if c.text != "" {
		parts = append(parts, c.text)
	}
	if c.gifURL != "" {
		parts = append(parts, "[gif] "+c.gifURL)
	}
	if c.attachment != nil {
		parts = append(parts, "[file] "+c.attachment.FileName)
	}
	return strings.Join(parts, " ")
}
