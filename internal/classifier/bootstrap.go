package classifier

// bootstrapExample is one hand-labeled training instance. The quality
// score reflects how helpful a well-routed answer to that message
// historically was.
type bootstrapExample struct {
	message string
	intent  string
	quality float64
}

// bootstrapSet seeds the model before any user feedback exists. Labels
// use the same vocabulary as the analyzer's query types so that
// corroboration is a direct string comparison.
var bootstrapSet = []bootstrapExample{
	{"¿Qué es un ETF y cómo funciona?", "educativa", 0.9},
	{"Explícame qué significa diversificar", "educativa", 0.85},
	{"No entiendo la diferencia entre acciones y bonos", "educativa", 0.8},
	{"¿Cómo funciona el interés compuesto?", "educativa", 0.9},
	{"¿Qué debería hacer con mis ahorros?", "asesoria", 0.8},
	{"¿Me conviene invertir en CETES ahora?", "asesoria", 0.75},
	{"¿Dónde invierto $10,000 pesos?", "asesoria", 0.8},
	{"Analiza el rendimiento de mi portafolio", "analitica", 0.85},
	{"¿Cuál es la volatilidad de mis inversiones?", "analitica", 0.8},
	{"Quiero ver las métricas de retorno anualizado", "analitica", 0.75},
	{"¡Emergencia! Mi portafolio cayó 30%", "urgente", 0.9},
	{"Ayuda urgente, estoy perdiendo todo", "urgente", 0.9},
	{"Quiero un plan de inversión a largo plazo para mi retiro", "estrategica", 0.85},
	{"¿Cómo armo una estrategia para mi jubilación?", "estrategica", 0.85},
	{"¿Qué es mejor, un ETF o un fondo de inversión?", "comparativa", 0.8},
	{"Compara bitcoin versus oro como inversión", "comparativa", 0.7},
	{"¿Bitcoin va a subir este año?", "especulativa", 0.5},
	{"¿Cuánto valdrá Tesla en cinco años?", "especulativa", 0.5},
}
