package mockapi

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/limitedeportes/panel/engine/item"
)

type createUserRequest struct {
	Usuario  string `json:"usuario"  binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=4"`
	Rol      string `json:"rol"      binding:"omitempty,oneof=admin operador"`
	Email    string `json:"email"    binding:"omitempty,email"`
}

type updateUserRequest struct {
	NuevoUsuario string  `json:"nuevo_usuario" binding:"required,min=3,max=50"`
	Password     string  `json:"password"      binding:"omitempty,min=4"`
	Rol          string  `json:"rol"           binding:"omitempty,oneof=admin operador"`
	Email        *string `json:"email"         binding:"omitempty"`
}

type branchRequest struct {
	Codigo string `json:"codigo" binding:"required,numeric,len=3"`
	Nombre string `json:"nombre" binding:"required,min=2,max=80"`
}

type branchUpdateRequest struct {
	Nombre string `json:"nombre" binding:"required,min=2,max=80"`
}

type sendSMSRequest struct {
	PersonID         string `json:"personId"         binding:"required,numeric,min=7,max=15"`
	PhoneNumber      string `json:"phoneNumber"      binding:"required,numeric,min=10,max=15"`
	MerchantCode     string `json:"merchantCode"     binding:"required,numeric,len=3"`
	VerificationCode string `json:"verificationCode" binding:"omitempty,numeric,len=4"`
}

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Users(c.Query("search")))
}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.store.User(c.Param("nombre"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "usuario": u.Usuario, "rol": u.Rol, "email": u.Email})
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBind(c, err)
		return
	}
	u, err := s.store.CreateUser(strings.TrimSpace(req.Usuario), req.Password, req.Rol, strings.TrimSpace(req.Email))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":      true,
		"usuario": u.Usuario,
		"rol":     u.Rol,
		"email":   u.Email,
		"mensaje": "Usuario creado correctamente",
	})
}

func (s *Server) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBind(c, err)
		return
	}
	name := c.Param("nombre")
	caller := c.GetString(callerKey)
	self := caller != "" && item.SameKey(caller, name)
	u, err := s.store.UpdateUser(name, UserUpdate{
		NewName:  strings.TrimSpace(req.NuevoUsuario),
		Password: req.Password,
		Rol:      req.Rol,
		Email:    req.Email,
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":                      true,
		"usuario":                 u.Usuario,
		"rol":                     u.Rol,
		"email":                   u.Email,
		"editando_propio_usuario": self,
		"mensaje":                 "Usuario actualizado correctamente",
	})
}

func (s *Server) deleteUser(c *gin.Context) {
	name := c.Param("nombre")
	if caller := c.GetString(callerKey); caller != "" && item.SameKey(caller, name) {
		if _, err := s.store.User(name); err == nil {
			abort(c, fail(http.StatusForbidden, "No podés eliminar tu propio usuario mientras tenés la sesión activa"))
			return
		}
	}
	if err := s.store.DeleteUser(name); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mensaje": fmt.Sprintf("Usuario '%s' eliminado correctamente", name)})
}

func (s *Server) currentUser(c *gin.Context) {
	caller := c.GetString(callerKey)
	if caller == "" {
		abort(c, fail(http.StatusUnauthorized, "No hay sesión activa"))
		return
	}
	u, err := s.store.User(caller)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "usuario": u.Usuario, "rol": u.Rol})
}

func (s *Server) userOptions(c *gin.Context) {
	users := s.store.Users("")
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{"id": u.ID, "nombre": u.Usuario})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listBranches(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Branches())
}

func (s *Server) createBranch(c *gin.Context) {
	var req branchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBind(c, err)
		return
	}
	b, err := s.store.CreateBranch(req.Codigo, strings.TrimSpace(req.Nombre))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "codigo": b.Codigo, "nombre": b.Nombre, "mensaje": "Sucursal creada correctamente"})
}

func (s *Server) updateBranch(c *gin.Context) {
	var req branchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBind(c, err)
		return
	}
	b, err := s.store.UpdateBranch(c.Param("codigo"), strings.TrimSpace(req.Nombre))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "codigo": b.Codigo, "nombre": b.Nombre, "mensaje": "Sucursal actualizada correctamente"})
}

func (s *Server) deleteBranch(c *gin.Context) {
	if err := s.store.DeleteBranch(c.Param("codigo")); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mensaje": "Sucursal eliminada correctamente"})
}

func (s *Server) smsLog(c *gin.Context) {
	var f SMSFilter
	if v := c.Query("usuario_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			abort(c, fail(http.StatusUnprocessableEntity, "usuario_id inválido"))
			return
		}
		f.UsuarioID = id
	}
	for param, dst := range map[string]*time.Time{"fecha_inicio": &f.From, "fecha_fin": &f.To} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			abort(c, fail(http.StatusUnprocessableEntity, "%s inválida", param))
			return
		}
		*dst = t
	}
	c.JSON(http.StatusOK, s.store.SMSLog(f))
}

func (s *Server) smsBalance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"saldo": s.store.Balance().StringFixed(2)})
}

// smsExpiry reports the package expiry. The mock never talks to the SMS
// provider, so the answer is always flagged simulado.
func (s *Server) smsExpiry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":                true,
		"fecha_vencimiento": s.store.Expiry().Format(time.DateOnly),
		"simulado":          true,
	})
}

func (s *Server) sendSMS(c *gin.Context) {
	var req sendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBind(c, err)
		return
	}
	caller, err := s.store.User(c.GetString(callerKey))
	if err != nil {
		abort(c, fail(http.StatusUnauthorized, "No hay sesión activa"))
		return
	}
	code := req.VerificationCode
	if code == "" {
		code = generateCode()
	}
	rec, balance, ferr := s.store.RecordSMS(SMSRecord{
		DNI:       req.PersonID,
		Celular:   req.PhoneNumber,
		Sucursal:  req.MerchantCode,
		Codigo:    code,
		UsuarioID: caller.ID,
	})
	if ferr != nil {
		abort(c, ferr)
		return
	}
	s.store.mu.RLock()
	branch := s.store.branchName(rec.Sucursal)
	s.store.mu.RUnlock()
	body := fmt.Sprintf("%s Limite Deportes %s - DNI: %s - Su Codigo es: %s", rec.Sucursal, branch, rec.DNI, rec.Codigo)
	c.JSON(http.StatusOK, gin.H{
		"message":          "SMS enviado correctamente",
		"verificationCode": rec.Codigo,
		"personId":         rec.DNI,
		"merchantCode":     rec.Sucursal,
		"smsBody":          body,
		"modoSimulado":     true,
		"saldo":            balance.StringFixed(2),
	})
}

// generateCode returns a random 4 digit code.
func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "0000"
	}
	return fmt.Sprintf("%04d", n.Int64())
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("field %s failed on %s", fe.Field(), fe.Tag())
	}
	return err.Error()
}
