// Package models holds the gorm-mapped records of the blog.
package models

// All lists every model in creation order, for schema auto-creation.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}}
}
