package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/companieshouse"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/email"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/storage"
)

// MemoryStore is an in-memory storage.Store.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	uploads int

	// UploadError, when set, is returned by every Upload.
	UploadError error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *MemoryStore) Upload(_ context.Context, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadError != nil {
		return s.UploadError
	}
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	s.uploads++
	return nil
}

func (s *MemoryStore) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return data, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Uploads returns how many uploads succeeded.
func (s *MemoryStore) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// MockEmailClient records sent messages instead of calling the provider.
type MockEmailClient struct {
	mu       sync.Mutex
	messages []email.Message

	// MockError, when set, is returned by every Send.
	MockError error
}

// NewMockEmailClient creates a client that accepts every message.
func NewMockEmailClient() *MockEmailClient {
	return &MockEmailClient{}
}

// WithError makes every Send fail with err.
func (m *MockEmailClient) WithError(err error) *MockEmailClient {
	m.MockError = err
	return m
}

func (m *MockEmailClient) Send(_ context.Context, msg email.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MockError != nil {
		return "", m.MockError
	}
	m.messages = append(m.messages, msg)
	return fmt.Sprintf("msg-%d", len(m.messages)), nil
}

// Messages returns a copy of the messages sent so far.
func (m *MockEmailClient) Messages() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.messages...)
}

// MockCompaniesHouse serves canned Companies House data keyed by company number.
type MockCompaniesHouse struct {
	Companies    map[string]companieshouse.CompanyProfile
	Appointments map[string][]companieshouse.Officer
	MockError    error
}

// NewMockCompaniesHouse creates an empty mock registry.
func NewMockCompaniesHouse() *MockCompaniesHouse {
	return &MockCompaniesHouse{
		Companies:    map[string]companieshouse.CompanyProfile{},
		Appointments: map[string][]companieshouse.Officer{},
	}
}

func (m *MockCompaniesHouse) Search(_ context.Context, query string) ([]companieshouse.SearchResult, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	var out []companieshouse.SearchResult
	for number, p := range m.Companies {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, companieshouse.SearchResult{CompanyNumber: number, Name: p.Name, Status: p.Status, Type: p.Type})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyNumber < out[j].CompanyNumber })
	return out, nil
}

func (m *MockCompaniesHouse) Profile(_ context.Context, number string) (companieshouse.CompanyProfile, error) {
	if m.MockError != nil {
		return companieshouse.CompanyProfile{}, m.MockError
	}
	p, ok := m.Companies[number]
	if !ok {
		return companieshouse.CompanyProfile{}, apperrors.ErrCompanyHouseNotFound
	}
	return p, nil
}

func (m *MockCompaniesHouse) Officers(_ context.Context, number string) ([]companieshouse.Officer, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	if _, ok := m.Companies[number]; !ok {
		return nil, apperrors.ErrCompanyHouseNotFound
	}
	return m.Appointments[number], nil
}
