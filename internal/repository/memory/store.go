// Package memory provides thread-safe in-memory repositories for tests and
// local development.
package memory

import "github.com/dom/todo-api/internal/repository"

func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		User: NewUserRepository(),
		Task: NewTaskRepository(),
	}
}
