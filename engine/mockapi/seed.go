package mockapi

import (
	"time"

	"github.com/limitedeportes/panel/engine/item"
)

var seedBranches = []Branch{
	{Codigo: "001", Nombre: "Casa Central"},
	{Codigo: "002", Nombre: "Palermo"},
	{Codigo: "003", Nombre: "Belgrano"},
	{Codigo: "004", Nombre: "Caballito"},
	{Codigo: "005", Nombre: "Quilmes"},
	{Codigo: "006", Nombre: "La Plata"},
}

var seedUsers = []struct {
	name, password, rol, email string
}{
	{"admin", "admin123", item.RoleAdmin, "admin@limitedeportes.com"},
	{"operador1", "op12345", item.RoleOperator, ""},
	{"operador2", "op12345", item.RoleOperator, ""},
	{"lucia", "lucia2024", item.RoleOperator, "lucia@limitedeportes.com"},
	{"martin", "martin2024", item.RoleOperator, ""},
	{"sofia", "sofia2024", item.RoleAdmin, "sofia@limitedeportes.com"},
	{"tomas", "tomas2024", item.RoleOperator, ""},
}

// Seed fills s with demo data: seven users, six branches and a few days of
// SMS traffic.
func Seed(s *Store) error {
	for _, b := range seedBranches {
		if _, err := s.CreateBranch(b.Codigo, b.Nombre); err != nil {
			return err
		}
	}
	ids := make([]int, 0, len(seedUsers))
	for _, u := range seedUsers {
		created, err := s.CreateUser(u.name, u.password, u.rol, u.email)
		if err != nil {
			return err
		}
		ids = append(ids, created.ID)
	}
	today := truncateDay(time.Now())
	records := []SMSRecord{
		{DNI: "30111222", Celular: "1155550001", Sucursal: "001", Codigo: "4821", UsuarioID: ids[1], Fecha: today},
		{DNI: "28999000", Celular: "1155550002", Sucursal: "002", Codigo: "1934", UsuarioID: ids[2], Fecha: today.AddDate(0, 0, -1)},
		{DNI: "40123456", Celular: "2215550003", Sucursal: "006", Codigo: "7710", UsuarioID: ids[1], Fecha: today.AddDate(0, 0, -3)},
		{DNI: "35555666", Celular: "1155550004", Sucursal: "003", Codigo: "0042", UsuarioID: ids[3], Fecha: today.AddDate(0, 0, -9)},
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.ID = newRecordID()
		s.sms = append(s.sms, r)
	}
	return nil
}
