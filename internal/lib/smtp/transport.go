package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/discern-api/internal/config"
	"github.com/magabrotheeeer/discern-api/internal/lib/sl"
)

// dialTimeout ограничивает ожидание TCP-соединения с почтовым сервером,
// чтобы зависший сервер не блокировал consumer очереди уведомлений.
const dialTimeout = 10 * time.Second

// Transport держит параметры почтового сервера и открывает к нему
// соединения. Требует STARTTLS: уведомления содержат адреса пользователей.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewTransport создает транспорт поверх секции smtp конфигурации.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// SenderAddress возвращает адрес отправителя уведомлений.
func (t *Transport) SenderAddress() string {
	return t.cfg.SMTPUser
}

// Connect открывает аутентифицированное соединение с почтовым сервером.
// Полученный Client рассчитан на отправку одного письма.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"

	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		t.log.Error("failed to dial smtp server", slog.String("addr", addr), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		t.closeQuietly(conn)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: server %s does not support STARTTLS", op, t.cfg.SMTPHost)
	}
	tlsCfg := &tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsCfg); err != nil {
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
	if err = client.Auth(auth); err != nil {
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &smtpClient{client: client}, nil
}

func (t *Transport) closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		t.log.Error("failed to close smtp connection", sl.Err(err))
	}
}

// smtpClient адаптирует *smtp.Client под интерфейс Client.
type smtpClient struct {
	client *smtp.Client
}

func (c *smtpClient) Mail(from string) error {
	return c.client.Mail(from)
}

func (c *smtpClient) Rcpt(to string) error {
	return c.client.Rcpt(to)
}

func (c *smtpClient) Data() (io.WriteCloser, error) {
	return c.client.Data()
}

func (c *smtpClient) Quit() error {
	return c.client.Quit()
}

func (c *smtpClient) Close() error {
	return c.client.Close()
}
