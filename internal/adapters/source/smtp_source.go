package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// SMTPSource runs a receiving SMTP server and queues delivered messages as
// inbound emails. Load serves until ctx is cancelled, then drains and returns
// the collected batch.
type SMTPSource struct {
	listenAddr     string
	domain         string
	drainTimeout   time.Duration
	sortByPriority bool
	logger         *zap.Logger

	mu     sync.Mutex
	queue  []*core.Email
	nextID int
}

// NewSMTPSource creates a new SMTP intake source
func NewSMTPSource(listenAddr, domain string, drainTimeout time.Duration, sortByPriority bool, logger *zap.Logger) *SMTPSource {
	return &SMTPSource{
		listenAddr:     listenAddr,
		domain:         domain,
		drainTimeout:   drainTimeout,
		sortByPriority: sortByPriority,
		logger:         logger,
	}
}

// Load serves SMTP until ctx is cancelled and returns everything delivered
// in the meantime
func (s *SMTPSource) Load(ctx context.Context) ([]*core.Email, error) {
	server := smtp.NewServer(&smtpBackend{source: s})
	server.Addr = s.listenAddr
	server.Domain = s.domain
	server.ReadTimeout = 30 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	server.MaxRecipients = 50
	server.AllowInsecureAuth = true

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("SMTP intake listening", zap.String("address", s.listenAddr))
		if err := server.ListenAndServe(); err != nil && err != smtp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return nil, fmt.Errorf("smtp server error: %w", err)
	case <-ctx.Done():
	}

	// Let in-flight sessions finish before closing
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("SMTP shutdown did not drain cleanly", zap.Error(err))
		_ = server.Close()
	}

	s.mu.Lock()
	emails := make([]*core.Email, len(s.queue))
	copy(emails, s.queue)
	s.queue = nil
	s.mu.Unlock()

	if s.sortByPriority {
		SortByPriority(emails)
	}

	s.logger.Info("SMTP intake drained", zap.Int("collected", len(emails)))
	return emails, nil
}

// enqueue appends a delivered message to the intake queue
func (s *SMTPSource) enqueue(email *core.Email) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email.EmailID == "" {
		s.nextID++
		email.EmailID = fmt.Sprintf("smtp-%d-%d", time.Now().Unix(), s.nextID)
	}
	s.queue = append(s.queue, email)
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	source *SMTPSource
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{source: b.source}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	source *SMTPSource
	from   string
}

func (s *smtpSession) Reset() {
	s.from = ""
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *smtpSession) Rcpt(_ string, _ *smtp.RcptOptions) error {
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to extract message body: %w", err)
	}

	sender := s.from
	senderName := ""
	if addr, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		if addr.Address != "" {
			sender = addr.Address
		}
		senderName = addr.Name
	}

	date := time.Now()
	if d, err := msg.Header.Date(); err == nil {
		date = d
	}

	emailID := strings.Trim(msg.Header.Get("Message-ID"), "<>")

	s.source.enqueue(&core.Email{
		EmailID:          emailID,
		Sender:           sender,
		SenderName:       senderName,
		Subject:          msg.Header.Get("Subject"),
		Body:             body,
		Date:             date,
		Priority:         core.PriorityMedium,
		RequiresResponse: true,
		Attachments:      []string{},
	})

	s.source.logger.Debug("Queued inbound SMTP message",
		zap.String("email_id", emailID),
		zap.String("sender", sender))

	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages it concatenates the text/plain parts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	mr := multipart.NewReader(msg.Body, boundary)
	var textContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partContentType := part.Header.Get("Content-Type")
		if strings.Contains(strings.ToLower(partContentType), "text/plain") {
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			textContent.Write(partBytes)
			textContent.WriteString("\n")
		}
	}

	if textContent.Len() > 0 {
		return textContent.String(), nil
	}
	return "[No text content found in multipart message]", nil
}
