package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email      string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone      string         `json:"phone" gorm:"size:32;index"`
	Password   string         `json:"-"`
	Role       string         `json:"role" gorm:"type:varchar(20);index"` // entrepreneur, investor, organization, admin
	IsActive   bool           `json:"isActive" gorm:"default:true"`
	IsBlocked  bool           `json:"isBlocked" gorm:"default:false"`
	PushTokens datatypes.JSON `json:"pushTokens"`
}

// Username is what chat presence events carry; the email local part keeps
// it stable across the three profile kinds.
func (u *User) Username() string {
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}

func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		PushTokens []string `json:"pushTokens,omitempty"`
		*Alias
	}{
		PushTokens: []string{},
		Alias:      (*Alias)(u),
	}
	if u.PushTokens != nil {
		var tokens []string
		if err := json.Unmarshal(u.PushTokens, &tokens); err == nil {
			aux.PushTokens = tokens
		}
	}
	return json.Marshal(aux)
}
