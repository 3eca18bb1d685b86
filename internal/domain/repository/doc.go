// Package repository define el modelo de registro de claves y el contrato del store.
//
// Las implementaciones concretas viven en internal/store/pg e internal/store/memory.
//
//	┌─────────────────────────────────────────────────────┐
//	│         controllers / cmd/keys                      │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   keystore.Manager (visibilidad, ciclo de vida)     │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (JWKRepository)            │
//	└─────────────────────────────────────────────────────┘
//	                 ┌──────┴──────┐
//	                 ▼             ▼
//	          ┌───────────┐  ┌───────────┐
//	          │    pg     │  │  memory   │
//	          └───────────┘  └───────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
//   - El store no aplica reglas de negocio
package repository
