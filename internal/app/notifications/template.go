package notifications

import (
	"bytes"
	"embed"
	"fmt"
	htmlTemplate "html/template"
	"io"
	"text/template"

	"github.com/livevlm/vlm-relay/internal/domain"
)

//go:embed tpl_files/*
var TemplateFiles embed.FS

// TemplateHandler holds the html and text templates for notification mails.
type TemplateHandler struct {
	relayUrl      string
	htmlTemplates *htmlTemplate.Template
	textTemplates *template.Template
}

func newTemplateHandler(relayUrl string) (*TemplateHandler, error) {
	htmlTemplateCache, err := htmlTemplate.New("Html").ParseFS(TemplateFiles, "tpl_files/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template files: %w", err)
	}

	txtTemplateCache, err := template.New("Txt").ParseFS(TemplateFiles, "tpl_files/*.gotpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template files: %w", err)
	}

	handler := &TemplateHandler{
		relayUrl:      relayUrl,
		htmlTemplates: htmlTemplateCache,
		textTemplates: txtTemplateCache,
	}

	return handler, nil
}

// GetAlertMail returns the text and html body for an alert notification mail.
func (c TemplateHandler) GetAlertMail(event domain.AnalysisEvent) (io.Reader, io.Reader, error) {
	var tplBuff bytes.Buffer
	var htmlTplBuff bytes.Buffer

	err := c.textTemplates.ExecuteTemplate(&tplBuff, "alert_mail.gotpl", map[string]any{
		"Event":    event,
		"RelayUrl": c.relayUrl,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute template alert_mail.gotpl: %w", err)
	}

	err = c.htmlTemplates.ExecuteTemplate(&htmlTplBuff, "alert_mail.gohtml", map[string]any{
		"Event":    event,
		"RelayUrl": c.relayUrl,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute template alert_mail.gohtml: %w", err)
	}

	return &tplBuff, &htmlTplBuff, nil
}
