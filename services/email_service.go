package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log"

	"luvlang_server/models"

	"gopkg.in/gomail.v2"
)

type EmailKind string

const (
	EmailMatchNotification   EmailKind = "match_notification"
	EmailMessageNotification EmailKind = "message_notification"
	EmailDailyDigest         EmailKind = "daily_digest"
	EmailWelcome             EmailKind = "welcome"
	EmailReEngagement        EmailKind = "re_engagement"
)

var ErrUnknownEmailKind = errors.New("unknown email kind")

// Mailer delivers one rendered HTML message.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	Dialer *gomail.Dialer
	From   string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{Dialer: gomail.NewDialer(host, port, user, password), From: from}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.Dialer.DialAndSend(msg)
}

// LogMailer stands in when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, _ string) error {
	log.Printf("📭 SMTP not configured, dropping %q to %s", subject, to)
	return nil
}

// EmailData feeds the templates. Unused fields are ignored per kind.
type EmailData struct {
	RecipientName  string                    `json:"recipientName"`
	OtherName      string                    `json:"otherName,omitempty"`
	OtherPhoto     string                    `json:"otherPhoto,omitempty"`
	MessagePreview string                    `json:"messagePreview,omitempty"`
	Matches        []models.MatchWithProfile `json:"matches,omitempty"`
	AppURL         string                    `json:"-"`
}

type EmailRequest struct {
	To   string    `json:"to"`
	Kind EmailKind `json:"type"`
	Data EmailData `json:"data"`
}

type emailTemplate struct {
	subject string
	body    *template.Template
}

const emailLayout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222;max-width:560px;margin:auto">
<h2 style="color:#e91e63">LuvLang</h2>
{{template "content" .}}
<p style="font-size:12px;color:#888">You are receiving this because you have a LuvLang account.</p>
</body></html>{{end}}`

var emailContents = map[EmailKind]struct{ subject, content string }{
	EmailMatchNotification: {"You have a new match! 💘", `{{define "content"}}
<p>Hi {{.RecipientName}},</p>
<p>You and <strong>{{.OtherName}}</strong> liked each other.</p>
{{if .OtherPhoto}}<img src="{{.OtherPhoto}}" alt="{{.OtherName}}" width="160">{{end}}
<p><a href="{{.AppURL}}/matches">Say hello</a></p>{{end}}`},
	EmailMessageNotification: {"New message on LuvLang", `{{define "content"}}
<p>Hi {{.RecipientName}},</p>
<p><strong>{{.OtherName}}</strong> sent you a message:</p>
<blockquote>{{.MessagePreview}}</blockquote>
<p><a href="{{.AppURL}}/messages">Reply</a></p>{{end}}`},
	EmailDailyDigest: {"Your daily matches are here", `{{define "content"}}
<p>Hi {{.RecipientName}}, here are today's picks:</p>
<ul>{{range .Matches}}<li>{{.FullName}}{{if .Age}}, {{.Age}}{{end}} ({{.Score}}% compatible)</li>{{end}}</ul>
<p><a href="{{.AppURL}}/matches">See them all</a></p>{{end}}`},
	EmailWelcome: {"Welcome to LuvLang", `{{define "content"}}
<p>Welcome, {{.RecipientName}}!</p>
<p>Add a few photos and a short bio so your matches can get to know you.</p>
<p><a href="{{.AppURL}}/profile">Finish your profile</a></p>{{end}}`},
	EmailReEngagement: {"We miss you at LuvLang", `{{define "content"}}
<p>Hi {{.RecipientName}},</p>
<p>New people have joined since your last visit.</p>
<p><a href="{{.AppURL}}">Come back and take a look</a></p>{{end}}`},
}

// EmailService renders the transactional templates and hands them to a Mailer.
type EmailService struct {
	Mailer    Mailer
	AppURL    string
	templates map[EmailKind]emailTemplate
}

func NewEmailService(mailer Mailer, appURL string) *EmailService {
	templates := make(map[EmailKind]emailTemplate, len(emailContents))
	for kind, c := range emailContents {
		t := template.Must(template.New(string(kind)).Parse(emailLayout))
		template.Must(t.Parse(c.content))
		templates[kind] = emailTemplate{subject: c.subject, body: t}
	}
	return &EmailService{Mailer: mailer, AppURL: appURL, templates: templates}
}

// Render returns the subject and HTML body for req.
func (es *EmailService) Render(req EmailRequest) (string, string, error) {
	tmpl, ok := es.templates[req.Kind]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEmailKind, req.Kind)
	}
	data := req.Data
	data.AppURL = es.AppURL
	if data.RecipientName == "" {
		data.RecipientName = "there"
	}
	var buf bytes.Buffer
	if err := tmpl.body.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", "", fmt.Errorf("render %s email: %w", req.Kind, err)
	}
	return tmpl.subject, buf.String(), nil
}

func (es *EmailService) Send(req EmailRequest) error {
	if req.To == "" {
		return errors.New("email recipient is required")
	}
	subject, body, err := es.Render(req)
	if err != nil {
		return err
	}
	if err := es.Mailer.Send(req.To, subject, body); err != nil {
		log.Printf("❌ Failed to send %s email to %s: %v", req.Kind, req.To, err)
		return err
	}
	log.Printf("📧 Sent %s email to %s", req.Kind, req.To)
	return nil
}

func (es *EmailService) SendWelcome(p models.Profile) error {
	return es.Send(EmailRequest{To: p.EmailID, Kind: EmailWelcome, Data: EmailData{RecipientName: p.FullName}})
}

func (es *EmailService) SendMatchNotification(to, other models.Profile) error {
	return es.Send(EmailRequest{To: to.EmailID, Kind: EmailMatchNotification, Data: EmailData{
		RecipientName: to.FullName,
		OtherName:     other.FullName,
		OtherPhoto:    other.PrimaryPhoto(),
	}})
}

func (es *EmailService) SendDailyDigest(p models.Profile, matches []models.MatchWithProfile) error {
	return es.Send(EmailRequest{To: p.EmailID, Kind: EmailDailyDigest, Data: EmailData{RecipientName: p.FullName, Matches: matches}})
}
