package auth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	tu "github.com/mymmrac/telego/telegoutil"
)

// maxInitDataAge bounds how old a WebApp launch may be when exchanged for a token
const maxInitDataAge = 24 * time.Hour

// WebAppUser is the user object carried in the initData "user" field
type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

// WebAppLogin is the verified content of Telegram WebApp initData
type WebAppLogin struct {
	User       WebAppUser
	StartParam string
	AuthDate   time.Time
}

// ValidateInitData verifies the initData signature against the bot token and
// extracts the user it describes
func ValidateInitData(botToken, initData string, now time.Time) (*WebAppLogin, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram login is not configured")
	}

	values, err := tu.ValidateWebAppData(botToken, initData)
	if err != nil {
		return nil, fmt.Errorf("invalid init data: %w", err)
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid auth_date: %w", err)
	}
	authDate := time.Unix(authUnix, 0)
	if now.Sub(authDate) > maxInitDataAge {
		return nil, fmt.Errorf("init data expired")
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return nil, fmt.Errorf("invalid user payload: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("init data has no user")
	}

	return &WebAppLogin{
		User:       user,
		StartParam: values.Get("start_param"),
		AuthDate:   authDate,
	}, nil
}
