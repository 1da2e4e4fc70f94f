package types

import "time"

// User is the platform account bound to a wallet address.
type User struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	ChainID       int       `json:"chainId"`
	IsInitialized bool      `json:"isInitialized"`
	ProfileID     string    `json:"profileId,omitempty"`
	CourseBuy     []string  `json:"courseBuy,omitempty"`
	FirstLogin    time.Time `json:"firstLogin"`
	LastLogin     time.Time `json:"lastLogin"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AuthRecord is the persisted login state. It survives process restarts.
type AuthRecord struct {
	WalletAddress string `json:"walletAddress"`
	TokenName     string `json:"tokenName,omitempty"`
	TokenValue    string `json:"tokenValue"`
	IsLoggedIn    bool   `json:"isLoggedIn"`
	User          *User  `json:"user,omitempty"`
	WalletType    string `json:"walletType,omitempty"`
}

// Merge applies the non-empty fields of patch onto r. IsLoggedIn follows
// whether a wallet address is known afterwards.
func (r AuthRecord) Merge(patch AuthRecord) AuthRecord {
	if patch.WalletAddress != "" {
		r.WalletAddress = patch.WalletAddress
	}
	if patch.TokenName != "" {
		r.TokenName = patch.TokenName
	}
	if patch.TokenValue != "" {
		r.TokenValue = patch.TokenValue
	}
	if patch.User != nil {
		r.User = patch.User
	}
	if patch.WalletType != "" {
		r.WalletType = patch.WalletType
	}
	r.IsLoggedIn = r.WalletAddress != ""
	return r
}
