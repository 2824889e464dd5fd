package service

import (
	"errors"
	"fmt"
	"strings"
)

// Сентинельные ошибки бизнес-логики. Обработчики маппят их
// на HTTP статусы через errors.Is.
var (
	ErrFileNotFound      = errors.New("файл не найден")
	ErrDirectoryNotFound = errors.New("директория не найдена")
	ErrDirectoryExists   = errors.New("директория с таким именем уже существует")
	ErrDuplicateFile     = errors.New("такой файл уже загружен")
	ErrDuplicateName     = errors.New("файл с таким именем уже существует в директории")
	ErrDuplicateVersion  = errors.New("такая версия файла уже существует")
	ErrVersionNotFound   = errors.New("версия файла не найдена")
	ErrAccessDenied      = errors.New("доступ запрещён")
	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrEmailTaken        = errors.New("пользователь с таким email уже зарегистрирован")
)

// InvalidUserIdsError : список несуществующих пользователей из запроса
// на выдачу доступа. Несёт сами идентификаторы, чтобы вернуть их клиенту.
type InvalidUserIdsError struct {
	UserIDs []string
}

func (e *InvalidUserIdsError) Error() string {
	return fmt.Sprintf("пользователи не найдены: %s", strings.Join(e.UserIDs, ", "))
}
