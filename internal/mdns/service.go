// Package mdns announces the Shutterbox server on the local network
// through the Avahi daemon, so clients can find it without configuration.
package mdns

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/holoplot/go-avahi"
)

const (
	// ServiceType is the DNS-SD service type for Shutterbox servers.
	ServiceType = "_shutterbox._tcp"

	// APIVersion is the API version advertised in TXT records.
	APIVersion = "v1"

	domain = "local"
)

// Announcement describes what the server advertises.
type Announcement struct {
	Name    string // instance name; empty uses the hostname
	Port    int
	Version string
}

// TXT renders the announcement's TXT records.
func (a Announcement) TXT() [][]byte {
	records := []string{
		"api=" + APIVersion,
		"path=/api/" + APIVersion,
	}
	if a.Version != "" {
		records = append(records, "version="+a.Version)
	}
	txt := make([][]byte, len(records))
	for i, r := range records {
		txt[i] = []byte(r)
	}
	return txt
}

// publisher is the part of Avahi the service needs.
type publisher interface {
	Publish(name string, port uint16, txt [][]byte) error
	Close()
}

type avahiPublisher struct {
	server *avahi.Server
	group  *avahi.EntryGroup
}

func dialAvahi() (publisher, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	server, err := avahi.ServerNew(conn)
	if err != nil {
		return nil, fmt.Errorf("connect avahi: %w", err)
	}
	group, err := server.EntryGroupNew()
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("create entry group: %w", err)
	}
	return &avahiPublisher{server: server, group: group}, nil
}

func (p *avahiPublisher) Publish(name string, port uint16, txt [][]byte) error {
	err := p.group.AddService(avahi.InterfaceUnspec, avahi.ProtoUnspec, 0,
		name, ServiceType, domain, "", port, txt)
	if err != nil {
		return fmt.Errorf("add service: %w", err)
	}
	return p.group.Commit()
}

func (p *avahiPublisher) Close() {
	p.group.Reset()
	p.server.EntryGroupFree(p.group)
	p.server.Close()
}

// Service manages the server's mDNS advertisement.
type Service struct {
	dial   func() (publisher, error)
	logger *slog.Logger

	mu  sync.Mutex
	pub publisher
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		dial:   dialAvahi,
		logger: logger,
	}
}

// Start begins advertising a. A running advertisement is replaced.
// Errors are usually not fatal: containers rarely expose the system bus.
func (s *Service) Start(a Announcement) error {
	if a.Port <= 0 || a.Port > 65535 {
		return fmt.Errorf("invalid port %d", a.Port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pub != nil {
		s.pub.Close()
		s.pub = nil
	}

	name := a.Name
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "shutterbox"
		}
		name = "Shutterbox on " + host
	}

	pub, err := s.dial()
	if err != nil {
		return err
	}
	if err := pub.Publish(name, uint16(a.Port), a.TXT()); err != nil {
		pub.Close()
		return errors.Join(errors.New("mDNS advertisement failed"), err)
	}
	s.pub = pub

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"name", name,
		"port", a.Port,
	)
	return nil
}

// Running reports whether an advertisement is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pub != nil
}

// Stop withdraws the advertisement. Safe to call when not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pub != nil {
		s.pub.Close()
		s.pub = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}
