package domain

// MailOptions are optional parameters for outgoing mails.
type MailOptions struct {
	ReplyTo  string // defaults to the sender
	HtmlBody string // if the html body is empty, a text-only mail is sent
	Cc       []string
	Bcc      []string
}
