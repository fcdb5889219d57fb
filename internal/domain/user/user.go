package user

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicateName = errors.New("username already exists")
)

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"` // never expose the hash in JSON
	Sex          string     `json:"sex,omitempty"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	Department   string     `json:"department,omitempty"`
	Telephone    string     `json:"telephone,omitempty"`
	Email        string     `json:"email,omitempty"`
	Role         string     `json:"role"`
	CreateTime   time.Time  `json:"createTime"`
}

// Page is one page of users plus the bookkeeping the listing endpoint returns.
type Page struct {
	Items   []User
	Total   int64
	Pages   int64
	Current int
	Size    int
}

func NewPage(items []User, total int64, current, size int) Page {
	pages := int64(0)

	if size > 0 {
		pages = (total + int64(size) - 1) / int64(size)
	}

	return Page{
		Items:   items,
		Total:   total,
		Pages:   pages,
		Current: current,
		Size:    size,
	}
}
