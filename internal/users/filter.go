package users

import (
	"fmt"
	"strings"
)

// Filter narrows a host's users. Nil fields are ignored.
type Filter struct {
	GiveawayID    *int64 `json:"giveawayId,omitempty"`
	EmailVerified *bool  `json:"emailVerified,omitempty"`
	EmailOptIn    *bool  `json:"emailOptIn,omitempty"`
	SMSOptIn      *bool  `json:"smsOptIn,omitempty"`
}

// Sort is a validated ordering.
type Sort struct {
	Field string
	Desc  bool
}

// sortColumns maps accepted sortBy values (lowercased) to SQL columns.
var sortColumns = map[string]string{
	"lastloginat": "u.last_login_at",
	"createdat":   "u.created_at",
	"email":       "u.email",
	"firstname":   "u.first_name",
	"lastname":    "u.last_name",
}

var sortNames = map[string]string{
	"lastloginat": "lastLoginAt",
	"createdat":   "createdAt",
	"email":       "email",
	"firstname":   "firstName",
	"lastname":    "lastName",
}

// ParseSort maps request parameters to a Sort. Unknown fields fall back to createdAt; order defaults to desc.
func ParseSort(sortBy, sortOrder string) Sort {
	key := strings.ToLower(strings.TrimSpace(sortBy))
	if _, ok := sortColumns[key]; !ok {
		key = "createdat"
	}
	return Sort{Field: sortNames[key], Desc: !strings.EqualFold(strings.TrimSpace(sortOrder), "asc")}
}

func (s Sort) orderBy() string {
	col, ok := sortColumns[strings.ToLower(s.Field)]
	if !ok {
		col = sortColumns["createdat"]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	// id keeps pages stable when the sort column ties
	return fmt.Sprintf("%s %s NULLS LAST, u.id %s", col, dir, dir)
}

// where builds the condition and args for hostID plus the filter.
func (f Filter) where(hostID int64) (string, []interface{}) {
	conds := []string{"u.host_id = $1"}
	args := []interface{}{hostID}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.GiveawayID != nil {
		add("EXISTS (SELECT 1 FROM giveaway_entries e WHERE e.user_id = u.id AND e.giveaway_id = $%d)", *f.GiveawayID)
	}
	if f.EmailVerified != nil {
		add("u.email_verified = $%d", *f.EmailVerified)
	}
	if f.EmailOptIn != nil {
		add("u.email_opt_in = $%d", *f.EmailOptIn)
	}
	if f.SMSOptIn != nil {
		add("u.sms_opt_in = $%d", *f.SMSOptIn)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
