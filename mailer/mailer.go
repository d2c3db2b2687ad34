//
// Copyright (c) 2026 urlsd contributors (see AUTHORS file)
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
//
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
//
// * Neither the name of urlsd nor the names of its
//   contributors may be used to endorse or promote products derived from
//   this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
// FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
// DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
// CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
// OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
//

// Package mailer sends email messages via SMTP, or writes them to a
// local directory during development.
package mailer

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
	gomail "gopkg.in/mail.v2"
)

const (
	// DefaultFrom is the sender address used when none is configured.
	DefaultFrom = "noreply@urls.fyi"
	// DebugMailDir is where the file sink writes messages.
	DebugMailDir = "./emails"
)

// Config describes an SMTP relay.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Mailer sends email messages. Note that sending emails costs money.
type Mailer interface {
	Send(to, subject, body string) error
}

// Connect returns a mailer for the given configuration. Without SMTP
// configuration messages are written to DebugMailDir, which is only
// suitable for development.
func Connect(conf *Config, infoLog *log.Logger) (Mailer, error) {
	if infoLog == nil {
		infoLog = log.New(io.Discard, "", 0)
	}
	if conf != nil && conf.Host != "" {
		infoLog.Printf("mailer: emails will be sent via smtp ('%s')", conf.Host)
		return newSMTP(conf, infoLog), nil
	}
	if err := os.MkdirAll(DebugMailDir, 0o755); err != nil {
		return nil, err
	}
	infoLog.Printf("mailer: emails will be saved to %s, only use this in development", DebugMailDir)
	return &FileMailer{dir: DebugMailDir}, nil
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	infoLog *log.Logger
}

func newSMTP(conf *Config, infoLog *log.Logger) *SMTPMailer {
	port := conf.Port
	if port == 0 {
		port = 587
	}
	from := conf.From
	if from == "" {
		from = DefaultFrom
	}
	return &SMTPMailer{
		dialer:  gomail.NewDialer(conf.Host, port, conf.User, conf.Password),
		from:    from,
		infoLog: infoLog,
	}
}

// Send delivers a plain text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	m.infoLog.Printf("mailer: sending email to: %s", to)
	return m.dialer.DialAndSend(msg)
}

// FileMailer writes messages as .eml files into a directory and
// remembers the most recently written path, which tests use to read
// messages back.
type FileMailer struct {
	dir string

	mu   sync.Mutex
	last string
}

// NewFileMailer returns a file sink writing into dir.
func NewFileMailer(dir string) (*FileMailer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileMailer{dir: dir}, nil
}

// Send writes the message to a fresh .eml file.
func (m *FileMailer) Send(to, subject, body string) error {
	content := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", DefaultFrom, to, subject, body)
	path := filepath.Join(m.dir, ulid.Make().String()+".eml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	m.mu.Lock()
	m.last = path
	m.mu.Unlock()
	return nil
}

// LastMessagePath returns the path of the most recently written
// message, or an empty string when nothing was sent yet.
func (m *FileMailer) LastMessagePath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
