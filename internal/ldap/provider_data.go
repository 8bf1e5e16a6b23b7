package ldap

import (
	"fmt"
	"sync"
)

// ProviderData is handed from the Terraform provider to its data sources.
// The mutex serializes catalog calls on the shared session because Terraform
// reads data sources concurrently.
type ProviderData struct {
	Session  Session
	PageSize int

	mu sync.Mutex
}

// NewProviderData creates a new provider data wrapper.
func NewProviderData(session Session, pageSize int) *ProviderData {
	return &ProviderData{
		Session:  session,
		PageSize: pageSize,
	}
}

// WithSession runs fn while holding exclusive use of the session.
func (pd *ProviderData) WithSession(fn func(Session) error) error {
	if pd == nil || pd.Session == nil {
		return fmt.Errorf("LDAP session is not initialized")
	}

	pd.mu.Lock()
	defer pd.mu.Unlock()

	return fn(pd.Session)
}
