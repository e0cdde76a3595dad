package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PostID identifies a post. The posts endpoint sends it either as a JSON
// string or as a number; both decode to the same text.
type PostID string

func (id *PostID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PostID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("post id must be a string or a number: %w", err)
	}
	*id = PostID(n)
	return nil
}

// Post is one entry of the results list shown on the terminal step
type Post struct {
	ID        PostID `json:"id"`
	Image     string `json:"image"`
	Avatar    string `json:"avatar"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Writeup   string `json:"writeup"`
}

// PostsResponse is the envelope returned by the posts endpoint
type PostsResponse struct {
	Data []Post `json:"data"`
}

// SubmitAck is what the registration endpoint sent back.
// Its body is kept raw since the shape is not part of the contract.
type SubmitAck struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}
