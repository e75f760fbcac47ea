package item

// Roles accepted by the backend for panel users.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operador"
)

// Users is the panel user resource.
var Users = Schema{
	Name:     "users",
	Noun:     "usuario",
	Plural:   "usuarios",
	KeyField: "usuario",
	Fields: []Field{
		{Name: "usuario", Label: "Usuario", Requirement: Required, Rules: "min=3,max=50", UpdateName: "nuevo_usuario"},
		{Name: "password", Label: "Contraseña", Requirement: RequiredOnCreate, Rules: "min=4,max=128", Secret: true},
		{Name: "rol", Label: "Rol", Requirement: Required, Rules: "oneof=admin operador"},
		{Name: "email", Label: "Email", Requirement: Optional, Rules: "email"},
	},
	SearchFields: []string{"rol", "email"},
}

// Branches is the sucursal resource. Branch codes never change once created.
var Branches = Schema{
	Name:     "branches",
	Noun:     "sucursal",
	Plural:   "sucursales",
	KeyField: "codigo",
	Fields: []Field{
		{Name: "codigo", Label: "Código", Requirement: Required, Rules: "numeric,len=3", Immutable: true},
		{Name: "nombre", Label: "Nombre", Requirement: Required, Rules: "min=2,max=80"},
	},
	SearchFields: []string{"nombre"},
}

// SMSLog is the read-only log of dispatched verification codes. Records are
// keyed by their ID when the backend sends one and by the code otherwise.
var SMSLog = Schema{
	Name:        "sms_log",
	Noun:        "registro",
	Plural:      "registros",
	KeyField:    "id",
	KeyFallback: "codigo",
	Fields: []Field{
		{Name: "id", Label: "ID", Hidden: true},
		{Name: "fecha", Label: "Fecha"},
		{Name: "dni", Label: "DNI"},
		{Name: "celular", Label: "Celular"},
		{Name: "sucursal", Label: "Sucursal"},
		{Name: "codigo", Label: "Código"},
		{Name: "usuario_nombre", Label: "Usuario"},
		{Name: "estado", Label: "Estado"},
	},
	SearchFields: []string{"dni", "celular", "sucursal", "usuario_nombre"},
	ReadOnly:     true,
}

// SMSDispatch is the create-only resource that asks the backend to send a
// verification code to a customer.
var SMSDispatch = Schema{
	Name:     "sms_dispatch",
	Noun:     "SMS",
	Plural:   "SMS",
	KeyField: "personId",
	Fields: []Field{
		{Name: "personId", Label: "DNI", Requirement: Required, Rules: "numeric,len=8"},
		{Name: "phoneNumber", Label: "Celular", Requirement: Required, Rules: "numeric,len=10"},
		{Name: "merchantCode", Label: "Sucursal", Requirement: Required, Rules: "numeric,len=3"},
		{Name: "verificationCode", Label: "Código", Requirement: Required, Rules: "numeric,len=4"},
	},
	CreateOnly: true,
}
