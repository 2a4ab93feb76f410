// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import "github.com/propietas/chat-backend/pkg/core/api"

// toolCatalog is offered to the model on every completion, regardless of
// conversation content. Only searchProperties and getAvailableLocalities are
// exposed; the demo registry entries are intentionally absent.
func toolCatalog() []api.Tool {
	return []api.Tool{
		{
			Type: "function",
			Function: api.ToolFunction{
				Name: "searchProperties",
				Description: "Busca propiedades disponibles para venta o alquiler con varios filtros. " +
					"Puedes filtrar por tipo de propiedad (departamento, casa, ph, oficina, local_comercial, " +
					"galpon, lote, quinta, chacra, estudio, loft, duplex, triplex), estado (disponible), " +
					"provincia, localidad (por nombre), dirección, cantidad de ambientes, cantidad de " +
					"dormitorios, y rangos de precios. También soporta paginación y ordenamiento. Puedes " +
					"especificar características como aire acondicionado, calefacción, piscina, etc.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"type": map[string]interface{}{
							"type": "string",
							"enum": []string{
								"departamento", "casa", "ph", "oficina", "local_comercial", "galpon",
								"lote", "quinta", "chacra", "estudio", "loft", "duplex", "triplex",
							},
							"description": "Tipo de propiedad (ej: departamento, casa, ph).",
						},
						"status": map[string]interface{}{
							"type":        "string",
							"description": "Estado de la propiedad (ej: disponible).",
						},
						"province": map[string]interface{}{
							"type":        "string",
							"description": "ID o nombre de la provincia.",
						},
						"localityName": map[string]interface{}{
							"type":        "string",
							"description": "Nombre de la localidad (ej: Rawson, Córdoba).",
						},
						"address": map[string]interface{}{
							"type":        "string",
							"description": "Parte de la dirección de la propiedad.",
						},
						"rooms": map[string]interface{}{
							"type":        "number",
							"description": "Cantidad total de ambientes de la propiedad.",
						},
						"bedrooms": map[string]interface{}{
							"type":        "number",
							"description": "Cantidad de dormitorios de la propiedad.",
						},
						"minPrice": map[string]interface{}{
							"type":        "number",
							"description": "Precio mínimo de la propiedad.",
						},
						"maxPrice": map[string]interface{}{
							"type":        "number",
							"description": "Precio máximo de la propiedad.",
						},
						"page": map[string]interface{}{
							"type":        "number",
							"description": "Número de página para la paginación (empieza en 0).",
						},
						"pageSize": map[string]interface{}{
							"type":        "number",
							"description": "Cantidad de resultados por página.",
						},
						"sort": map[string]interface{}{
							"type":        "string",
							"description": "Campo para ordenar los resultados (ej: address, -createdAt para descendente).",
						},
						"specs": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "string",
								"enum": []string{
									"aire_acondicionado", "calefaccion", "portero", "ascensor", "cochera",
									"piscina", "jardin", "parrilla", "balcon", "terraza", "lavadero",
									"baulera", "sum", "gimnasio", "seguridad_24h",
								},
							},
							"description": "Lista de características de la propiedad (ej: piscina, cochera).",
						},
						"search": map[string]interface{}{
							"type": "string",
							"description": "String JSON codificado con criterios de búsqueda avanzada " +
								`(ej: {"criteria":[{"field":"locality","term":"ID_LOCALIDAD","operation":"eq"}]}).`,
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: api.ToolFunction{
				Name:        "getAvailableLocalities",
				Description: "Obtiene una lista de localidades donde hay propiedades disponibles para venta o alquiler.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"type": map[string]interface{}{
							"type":        "string",
							"enum":        []string{"all", "sale", "rent"},
							"description": "Tipo de publicación (all, sale, rent). Por defecto es all.",
						},
					},
				},
			},
		},
	}
}
