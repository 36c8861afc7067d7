package auth

import (
	"fmt"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/apperr"
)

// Route names an area of the application. Commands declare the route they
// belong to.
type Route string

const (
	RouteGestor       Route = "gestor"
	RouteConfig       Route = "config"
	RouteProfissional Route = "profissional"
	RoutePacientes    Route = "pacientes"
	RouteAgendamentos Route = "agendamentos"
	RouteAlertas      Route = "alertas"
	RouteRelatorios   Route = "relatorios"
	RouteExportacoes  Route = "exportacoes"
	RouteMe           Route = "me"
)

var acl = map[Route][]api.Role{
	RouteGestor:       {api.RoleManager},
	RouteConfig:       {api.RoleManager},
	RouteExportacoes:  {api.RoleManager},
	RouteProfissional: {api.RoleProfessional, api.RoleManager},
	RoutePacientes:    {api.RoleProfessional, api.RoleManager},
	RouteAgendamentos: {api.RoleProfessional, api.RoleManager},
	RouteAlertas:      {api.RoleProfessional, api.RoleManager},
	RouteRelatorios:   {api.RoleProfessional, api.RoleManager},
	RouteMe:           {api.RolePatient},
}

// Features toggles optional areas.
type Features struct {
	PatientPortal bool
}

// PickRole chooses the most privileged role: MANAGER, then PROFESSIONAL,
// then PATIENT. It returns "" when none is present.
func PickRole(roles []api.Role) api.Role {
	for _, want := range []api.Role{api.RoleManager, api.RoleProfessional, api.RolePatient} {
		for _, r := range roles {
			if r == want {
				return want
			}
		}
	}
	return ""
}

// Allowed reports whether role may open route.
func Allowed(route Route, role api.Role, f Features) bool {
	if route == RouteMe && !f.PatientPortal {
		return false
	}
	for _, r := range acl[route] {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns ErrForbidden when role may not open route.
func Require(route Route, role api.Role, f Features) error {
	if role == "" {
		return apperr.Unauthorized("Faça login para continuar.")
	}
	if Allowed(route, role, f) {
		return nil
	}
	if route == RouteMe && role == api.RolePatient {
		return apperr.Forbidden("O portal do paciente está desativado.")
	}
	return apperr.Forbidden(fmt.Sprintf("Esta conta não possui o papel necessário (%s).", needed(route)))
}

// Home is the landing area for a role.
func Home(role api.Role) Route {
	switch role {
	case api.RoleManager:
		return RouteGestor
	case api.RoleProfessional:
		return RouteProfissional
	case api.RolePatient:
		return RouteMe
	}
	return ""
}

func needed(route Route) string {
	roles := acl[route]
	if len(roles) == 0 {
		return "?"
	}
	out := string(roles[0])
	for _, r := range roles[1:] {
		out += " ou " + string(r)
	}
	return out
}
