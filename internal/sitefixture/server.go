package sitefixture

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

const sessionCookie = "catalog_session"

// Server is a local stand-in for the catalog site: a login form guarding
// product pages and product images.
type Server struct {
	*httptest.Server

	username string
	password string

	mu          sync.RWMutex
	products    map[string]Product
	images      map[string][]byte
	unreachable map[string]bool

	logins        int32
	productVisits int32
	imageFetches  int32
}

// NewServer starts a fixture site accepting the given credentials
func NewServer(username, password string) *Server {
	s := &Server{
		username:    username,
		password:    password,
		products:    make(map[string]Product),
		images:      make(map[string][]byte),
		unreachable: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/product-details/", s.requireSession(s.handleProduct))
	mux.HandleFunc("/images/", s.requireSession(s.handleImage))
	mux.HandleFunc("/", s.requireSession(func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, http.StatusOK, HomePage())
	}))

	s.Server = httptest.NewServer(mux)
	return s
}

// AddProduct publishes a product page. When image is non-nil it is served
// at /images/{id}.jpg and referenced by a relative src.
func (s *Server) AddProduct(p Product, image []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if image != nil {
		if p.ImageSrc == "" {
			p.ImageSrc = "/images/" + p.ID + ".jpg"
		}
		s.images[p.ID] = image
	}
	s.products[p.ID] = p
}

// SetUnreachable makes requests for product id drop the connection
func (s *Server) SetUnreachable(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreachable[id] = true
}

// LoginURL returns the login page URL
func (s *Server) LoginURL() string {
	return s.URL + "/login"
}

// ProductURLTemplate returns the product URL template with an {id} placeholder
func (s *Server) ProductURLTemplate() string {
	return s.URL + "/product-details/{id}"
}

// Logins returns the number of successful logins
func (s *Server) Logins() int {
	return int(atomic.LoadInt32(&s.logins))
}

// ProductVisits returns the number of product page requests served
func (s *Server) ProductVisits() int {
	return int(atomic.LoadInt32(&s.productVisits))
}

// ImageFetches returns the number of image requests served
func (s *Server) ImageFetches() int {
	return int(atomic.LoadInt32(&s.imageFetches))
}

func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value != "ok" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeHTML(w, http.StatusOK, LoginPage())
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != s.username || r.PostForm.Get("password") != s.password {
		writeHTML(w, http.StatusUnauthorized, LoginPage())
		return
	}

	atomic.AddInt32(&s.logins, 1)
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "ok", Path: "/", HttpOnly: true})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.productVisits, 1)
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/product-details/"), "/")

	s.mu.RLock()
	p, ok := s.products[id]
	down := s.unreachable[id]
	s.mu.RUnlock()

	if down {
		dropConnection(w)
		return
	}
	if !ok {
		writeHTML(w, http.StatusNotFound, HomePage())
		return
	}
	writeHTML(w, http.StatusOK, ProductPage(p))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.imageFetches, 1)
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/images/"), ".jpg")

	s.mu.RLock()
	data, ok := s.images[id]
	s.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// dropConnection closes the connection without a response
func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "unreachable", http.StatusBadGateway)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}
