package repository

import "errors"

var (
	// ErrDuplicateHash : параллельная загрузка успела вставить блоб с тем же
	// hash. Не фатальная ошибка: вызывающий перечитывает строку победителя.
	ErrDuplicateHash = errors.New("блоб с таким hash уже существует")

	ErrDuplicateEmail = errors.New("пользователь с таким email уже существует")

	// Гонки check-then-insert по именам и содержимому директорий ловят
	// частичные уникальные индексы, сервисы маппят эти ошибки на свои.
	ErrDuplicateDirectoryName = errors.New("директория с таким именем уже существует у родителя")
	ErrDuplicateFileName      = errors.New("файл с таким именем уже существует в директории")
	ErrDuplicateFileMap       = errors.New("блоб уже отображён в эту директорию")
)
