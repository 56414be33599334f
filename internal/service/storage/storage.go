package storage

// UploadResult — результат загрузки бинарника в хранилище.
// Key служит удаляемым идентификатором, URL — каноническим адресом.
type UploadResult struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
}

// Storage определяет интерфейс объектного хранилища изображений.
// Передается в сервисы как явная зависимость, в тестах подменяется фейком.
type Storage interface {
	UploadBytes(key string, data []byte) (*UploadResult, error)
	// DeleteObject удаляет объект по ключу.
	// Отсутствующий объект считается успешно удаленным.
	DeleteObject(key string) error
	PublicURL(key string) string
}
