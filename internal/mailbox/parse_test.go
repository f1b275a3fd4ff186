package mailbox

import (
	"strings"
	"testing"
)

const multipartMessage = "Subject: Thanks for applying\r\n" +
	"From: jobs@acme.example\r\n" +
	"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"We received your application.\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>We received your application.</p>\r\n" +
	"--BOUNDARY--\r\n"

const htmlOnlyMessage = "Subject: Thanks for applying\r\n" +
	"From: jobs@acme.example\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>HTML only body</p>\r\n"

func TestExtractText_PrefersPlainText(t *testing.T) {
	got := extractText([]byte(multipartMessage))
	if !strings.Contains(got, "We received your application.") {
		t.Errorf("body = %q, want plain text part", got)
	}
	if strings.Contains(got, "<p>") {
		t.Errorf("body = %q, should not contain HTML when plain text exists", got)
	}
}

func TestExtractText_FallsBackToHTML(t *testing.T) {
	got := extractText([]byte(htmlOnlyMessage))
	if !strings.Contains(got, "HTML only body") {
		t.Errorf("body = %q, want HTML part as fallback", got)
	}
}

func TestExtractText_UnparseableFallsBackToRaw(t *testing.T) {
	raw := "just some plain bytes, not a MIME message"
	got := extractText([]byte(raw))
	if got != raw {
		t.Errorf("body = %q, want raw passthrough", got)
	}
}
