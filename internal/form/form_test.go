package form

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPost(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestDecode_Register(t *testing.T) {
	tests := []struct {
		name       string
		values     url.Values
		wantFields []string
	}{
		{
			name:   "valid",
			values: url.Values{"email": {"a@x.com"}, "password": {"password1"}, "name": {"A"}},
		},
		{
			name:       "everything missing",
			values:     url.Values{},
			wantFields: []string{"email", "password", "name"},
		},
		{
			name:       "bad email",
			values:     url.Values{"email": {"not-an-email"}, "password": {"password1"}, "name": {"A"}},
			wantFields: []string{"email"},
		},
		{
			name:       "short password",
			values:     url.Values{"email": {"a@x.com"}, "password": {"seven77"}, "name": {"A"}},
			wantFields: []string{"password"},
		},
		{
			name:       "password over bcrypt limit",
			values:     url.Values{"email": {"a@x.com"}, "password": {strings.Repeat("p", 73)}, "name": {"A"}},
			wantFields: []string{"password"},
		},
		{
			name:       "whitespace-only name",
			values:     url.Values{"email": {"a@x.com"}, "password": {"password1"}, "name": {"   "}},
			wantFields: []string{"name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f RegisterForm
			errs, err := Decode(newPost(tt.values), &f)
			require.NoError(t, err)

			assert.Len(t, errs, len(tt.wantFields), "errors: %v", errs)
			for _, field := range tt.wantFields {
				assert.NotEmpty(t, errs.Get(field), "expected an error on %q", field)
			}
		})
	}
}

func TestDecode_KeepsValuesForRerender(t *testing.T) {
	var f RegisterForm
	errs, err := Decode(newPost(url.Values{"email": {"  a@x.com "}, "password": {" pw "}, "name": {"Ann"}}), &f)
	require.NoError(t, err)

	assert.True(t, errs.Any())
	assert.Equal(t, "a@x.com", f.Email)
	assert.Equal(t, " pw ", f.Password, "passwords are taken verbatim")
	assert.Equal(t, "Ann", f.Name)
}

func TestDecode_Messages(t *testing.T) {
	var f RegisterForm
	errs, err := Decode(newPost(url.Values{"email": {"nope"}, "password": {"short"}}), &f)
	require.NoError(t, err)

	assert.Equal(t, "Invalid email address.", errs.Get("email"))
	assert.Equal(t, "Field must be at least 8 characters long.", errs.Get("password"))
	assert.Equal(t, "This field is required.", errs.Get("name"))
}

func TestDecode_Post(t *testing.T) {
	valid := url.Values{
		"title":    {"Hello"},
		"subtitle": {"First post"},
		"img_url":  {"https://example.com/a.jpg"},
		"body":     {"<p>hi</p>"},
	}

	var f PostForm
	errs, err := Decode(newPost(valid), &f)
	require.NoError(t, err)
	assert.False(t, errs.Any(), "errors: %v", errs)
	assert.Equal(t, "https://example.com/a.jpg", f.ImgURL)

	bad := url.Values{"title": {"Hello"}, "subtitle": {"s"}, "img_url": {"not a url"}, "body": {"b"}}
	errs, err = Decode(newPost(bad), &f)
	require.NoError(t, err)
	assert.Equal(t, "Invalid URL.", errs.Get("img_url"))
	assert.Len(t, errs, 1)
}

func TestDecode_LoginCommentContact(t *testing.T) {
	var login LoginForm
	errs, err := Decode(newPost(url.Values{"email": {"a@x.com"}}), &login)
	require.NoError(t, err)
	assert.Equal(t, Errors{"password": "This field is required."}, errs)

	var comment CommentForm
	errs, err = Decode(newPost(url.Values{"comment_text": {"  "}}), &comment)
	require.NoError(t, err)
	assert.NotEmpty(t, errs.Get("comment_text"))

	var contact ContactForm
	errs, err = Decode(newPost(url.Values{
		"name": {"Bo"}, "email": {"bo@x.com"}, "phone": {"555"}, "message": {"hi"},
	}), &contact)
	require.NoError(t, err)
	assert.False(t, errs.Any())

	errs, err = Decode(newPost(url.Values{"name": {"Bo"}, "email": {"bo@x.com"}, "message": {"hi"}}), &contact)
	require.NoError(t, err)
	assert.NotEmpty(t, errs.Get("phone"))
}

func TestErrors_AddKeepsFirstMessage(t *testing.T) {
	errs := Errors{}
	errs.Add("title", "first")
	errs.Add("title", "second")
	assert.Equal(t, "first", errs.Get("title"))
}
