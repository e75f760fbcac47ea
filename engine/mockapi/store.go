package mockapi

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/limitedeportes/panel/engine/item"
)

// Error is a failure answered with {"detail": Message}.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func fail(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

type User struct {
	ID      int    `json:"id"`
	Usuario string `json:"usuario"`
	Rol     string `json:"rol"`
	Email   string `json:"email"`
	hash    []byte
}

type Branch struct {
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
}

type SMSRecord struct {
	ID        string
	DNI       string
	Celular   string
	Sucursal  string
	Codigo    string
	UsuarioID int
	Fecha     time.Time
}

// Store is the in-memory state of the mock backend.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*User
	branches map[string]*Branch
	sms      []SMSRecord
	nextID   int
	balance  decimal.Decimal
	cost     decimal.Decimal
	expiry   time.Time
	now      func() time.Time
}

func NewStore(balance, cost decimal.Decimal) *Store {
	return &Store{
		users:    map[string]*User{},
		branches: map[string]*Branch{},
		nextID:   1,
		balance:  balance,
		cost:     cost,
		now:      time.Now,
	}
}

func (s *Store) Users(search string) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := item.Fold(strings.TrimSpace(search))
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if needle == "" || strings.Contains(item.Fold(u.Usuario), needle) || strings.Contains(item.Fold(u.Email), needle) {
			out = append(out, *u)
		}
	}
	slices.SortFunc(out, func(a, b User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) User(name string) (User, *Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[item.Fold(name)]
	if !ok {
		return User{}, fail(http.StatusNotFound, "Usuario no encontrado")
	}
	return *u, nil
}

func (s *Store) userByID(id int) (User, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return *u, true
		}
	}
	return User{}, false
}

func (s *Store) CreateUser(name, password, rol, email string) (User, *Error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return User{}, fail(http.StatusBadRequest, "Contraseña inválida")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[item.Fold(name)]; exists {
		return User{}, fail(http.StatusConflict, "El usuario ya existe")
	}
	if email != "" && s.emailTaken(email, 0) {
		return User{}, fail(http.StatusConflict, "El email ya está registrado")
	}
	if rol == "" {
		rol = item.RoleOperator
	}
	u := &User{ID: s.nextID, Usuario: name, Rol: rol, Email: email, hash: hash}
	s.nextID++
	s.users[item.Fold(name)] = u
	return *u, nil
}

// UserUpdate carries the optional changes of an edit.
type UserUpdate struct {
	NewName  string
	Password string
	Rol      string
	Email    *string
}

func (s *Store) UpdateUser(name string, upd UserUpdate) (User, *Error) {
	var hash []byte
	if upd.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(upd.Password), bcrypt.MinCost)
		if err != nil {
			return User{}, fail(http.StatusBadRequest, "Contraseña inválida")
		}
		hash = h
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[item.Fold(name)]
	if !ok {
		return User{}, fail(http.StatusNotFound, "Usuario no encontrado")
	}
	if upd.NewName != "" && upd.NewName != u.Usuario {
		if other, taken := s.users[item.Fold(upd.NewName)]; taken && other != u {
			return User{}, fail(http.StatusConflict, "El nuevo nombre ya está en uso")
		}
	}
	if upd.Email != nil && *upd.Email != "" && s.emailTaken(*upd.Email, u.ID) {
		return User{}, fail(http.StatusConflict, "El email ya está en uso")
	}
	if upd.NewName != "" && upd.NewName != u.Usuario {
		delete(s.users, item.Fold(u.Usuario))
		u.Usuario = upd.NewName
		s.users[item.Fold(u.Usuario)] = u
	}
	if hash != nil {
		u.hash = hash
	}
	if upd.Rol != "" {
		u.Rol = upd.Rol
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	return *u, nil
}

func (s *Store) DeleteUser(name string) *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := item.Fold(name)
	if _, ok := s.users[key]; !ok {
		return fail(http.StatusNotFound, "El usuario '%s' no existe", name)
	}
	delete(s.users, key)
	return nil
}

// Authenticate reports whether password matches the stored hash.
func (s *Store) Authenticate(name, password string) bool {
	s.mu.RLock()
	u, ok := s.users[item.Fold(name)]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.hash, []byte(password)) == nil
}

func (s *Store) emailTaken(email string, except int) bool {
	for _, u := range s.users {
		if u.ID != except && item.SameKey(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) Branches() []Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Branch, 0, len(s.branches))
	for _, b := range s.branches {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b Branch) int { return cmp.Compare(a.Codigo, b.Codigo) })
	return out
}

func (s *Store) CreateBranch(codigo, nombre string) (Branch, *Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.branches[codigo]; exists {
		return Branch{}, fail(http.StatusConflict, "Ya existe una sucursal con el código %s", codigo)
	}
	b := &Branch{Codigo: codigo, Nombre: nombre}
	s.branches[codigo] = b
	return *b, nil
}

func (s *Store) UpdateBranch(codigo, nombre string) (Branch, *Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.branches[codigo]
	if !ok {
		return Branch{}, fail(http.StatusNotFound, "Sucursal no encontrada")
	}
	b.Nombre = nombre
	return *b, nil
}

func (s *Store) DeleteBranch(codigo string) *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.branches[codigo]; !ok {
		return fail(http.StatusNotFound, "Sucursal no encontrada")
	}
	delete(s.branches, codigo)
	return nil
}

func (s *Store) branchName(codigo string) string {
	if b, ok := s.branches[codigo]; ok {
		return b.Nombre
	}
	return codigo
}

// SMSFilter narrows the SMS log.
type SMSFilter struct {
	UsuarioID int
	From      time.Time
	To        time.Time
}

// SMSRow is a log entry as the admin endpoint renders it.
type SMSRow struct {
	ID            string `json:"id"`
	DNI           string `json:"dni"`
	Celular       string `json:"celular"`
	Sucursal      string `json:"sucursal"`
	Codigo        string `json:"codigo"`
	UsuarioNombre string `json:"usuario_nombre"`
	Fecha         string `json:"fecha"`
	Estado        string `json:"estado"`
}

// SMSLog returns the matching records, newest first.
func (s *Store) SMSLog(f SMSFilter) []SMSRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := slices.Clone(s.sms)
	slices.SortStableFunc(records, func(a, b SMSRecord) int { return b.Fecha.Compare(a.Fecha) })
	out := make([]SMSRow, 0, len(records))
	for _, r := range records {
		day := truncateDay(r.Fecha)
		if f.UsuarioID > 0 && r.UsuarioID != f.UsuarioID {
			continue
		}
		if !f.From.IsZero() && day.Before(truncateDay(f.From)) {
			continue
		}
		if !f.To.IsZero() && day.After(truncateDay(f.To)) {
			continue
		}
		name := "desconocido"
		if u, ok := s.userByID(r.UsuarioID); ok {
			name = u.Usuario
		}
		out = append(out, SMSRow{
			ID:            r.ID,
			DNI:           r.DNI,
			Celular:       r.Celular,
			Sucursal:      s.branchName(r.Sucursal),
			Codigo:        r.Codigo,
			UsuarioNombre: name,
			Fecha:         r.Fecha.Format(time.DateOnly),
			Estado:        "enviado",
		})
	}
	return out
}

// RecordSMS charges the configured cost and logs a dispatch.
func (s *Store) RecordSMS(rec SMSRecord) (SMSRecord, decimal.Decimal, *Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.branches[rec.Sucursal]; !ok {
		return SMSRecord{}, s.balance, fail(http.StatusNotFound, "Sucursal %s no encontrada", rec.Sucursal)
	}
	if s.balance.LessThan(s.cost) {
		return SMSRecord{}, s.balance, fail(http.StatusPaymentRequired,
			"Saldo insuficiente: disponible %s, costo %s", s.balance.StringFixed(2), s.cost.StringFixed(2))
	}
	s.balance = s.balance.Sub(s.cost)
	rec.ID = newRecordID()
	if rec.Fecha.IsZero() {
		rec.Fecha = s.now()
	}
	s.sms = append(s.sms, rec)
	return rec, s.balance, nil
}

// Balance returns the remaining SMS credit.
func (s *Store) Balance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// Expiry returns the day the prepaid SMS package runs out.
func (s *Store) Expiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiry
}

func (s *Store) SetExpiry(t time.Time) {
	s.mu.Lock()
	s.expiry = t
	s.mu.Unlock()
}

func newRecordID() string {
	return ksuid.New().String()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
