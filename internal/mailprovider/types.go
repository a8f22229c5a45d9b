// Package mailprovider is the HTTP client for the external mail
// provider's JSON-LD paginated API: account roster, mailboxes, message
// headers/bodies, and attachments, all mediated through a TTL cache so a
// scan sweep doesn't re-fetch the same account list per inbox.
package mailprovider

import "time"

// Account is one mailbox owner as reported by the provider, with its
// well-known mailbox ids resolved out of the raw mailbox list.
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"-"`
	LastName    string `json:"-"`
	InboxID     string `json:"-"`
	TrashID     string `json:"-"`
	JunkID      string `json:"-"`
	SentID      string `json:"-"`
}

// Mailbox is one folder within an account (inbox, trash, junk, sent, ...).
type Mailbox struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Message is a normalized email: provider-specific "from" object vs.
// string and html/text array vs. string quirks are resolved before this
// struct is populated.
type Message struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	From      string    `json:"from"`
	Sender    string    `json:"sender"`
	Date      time.Time `json:"date"`
	HTML      string    `json:"html,omitempty"`
	Text      string    `json:"text,omitempty"`
	MailboxID string    `json:"-"`
}

// Attachment is a downloaded attachment's raw bytes plus its metadata.
type Attachment struct {
	Content     []byte
	ContentType string
	Filename    string
}
