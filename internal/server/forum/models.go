package forum

// Message is a single post inside a thread. Ids are renumbered sequentially
// when earlier messages are deleted, so they are only stable between deletes.
type Message struct {
	ID     int    `json:"id"`
	Author string `json:"author"`
	Body   string `json:"message"`
}

// File records an uploaded file's metadata; the body lives in the blob store.
type File struct {
	ID       int    `json:"id"`
	Uploader string `json:"uploader"`
	Name     string `json:"name"`
}

// Thread is a titled discussion owned by its creator.
type Thread struct {
	ID            int              `json:"id"`
	Title         string           `json:"title"`
	Author        string           `json:"author"`
	NextMessageID int              `json:"next_mid"`
	NextFileID    int              `json:"next_fid"`
	Messages      map[int]*Message `json:"messages"`
	Files         map[int]*File    `json:"files"`
}
