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

package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spreadspace/tlsconfig"
	"gopkg.in/yaml.v3"

	"github.com/urlsfyi/urlsd/mailer"
	"github.com/urlsfyi/urlsd/search"
)

type WebConfig struct {
	Listen string               `yaml:"listen"`
	TLS    *tlsconfig.TLSConfig `yaml:"tls"`
	// WWW is served for everything outside /api.
	WWW string `yaml:"www"`
}

type PrometheusConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

type Config struct {
	Web        WebConfig         `yaml:"web"`
	Database   string            `yaml:"database"`
	Mail       *mailer.Config    `yaml:"mail"`
	Search     *search.Config    `yaml:"search"`
	Prometheus *PrometheusConfig `yaml:"prometheus"`
	// BlockedDomains points at an additional disposable-domain list
	// that is reloaded on change.
	BlockedDomains string `yaml:"blocked-domains"`
}

func readConfig(configfile string) (*Config, error) {
	file, err := os.Open(configfile)
	if err != nil {
		return nil, fmt.Errorf("Error opening config file: %s", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	c := &Config{}
	if err = decoder.Decode(c); err != nil {
		return nil, fmt.Errorf("Error parsing config file: %s", err)
	}
	if c.Database == "" {
		c.Database = "urls.db"
	}
	if pass, exists := os.LookupEnv("URLSD_SMTP_PASS"); exists && c.Mail != nil {
		c.Mail.Password = pass
	}
	return c, nil
}

// sessionKey returns the HMAC key for session envelopes. Without
// URLSD_SESSION_KEY a random key is generated, which invalidates all
// sessions on restart.
func sessionKey() ([]byte, error) {
	if key, exists := os.LookupEnv("URLSD_SESSION_KEY"); exists && key != "" {
		return []byte(key), nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("Error generating session key: %s", err)
	}
	wl.Printf("config: URLSD_SESSION_KEY is not set, using a random key (sessions will not survive restarts)")
	return key, nil
}
