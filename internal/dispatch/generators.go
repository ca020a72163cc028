package dispatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasreyna/plata-advisor/internal/analyzer"
)

// register buckets the knowledge level into the three explanation
// registers the generators distinguish.
type register int

const (
	registerBeginner register = iota
	registerIntermediate
	registerAdvanced
)

func registerFor(level analyzer.KnowledgeLevel) register {
	switch {
	case level.Rank() <= analyzer.LevelBeginner.Rank():
		return registerBeginner
	case level.Rank() >= analyzer.LevelAdvanced.Rank():
		return registerAdvanced
	default:
		return registerIntermediate
	}
}

// subject returns what the message is about, preferring named entities
// over asset classes, with a generic fallback so templates never leak
// placeholders.
func subject(an analyzer.Analysis) string {
	if len(an.Context.Entities) > 0 {
		return an.Context.Entities[0]
	}
	if len(an.Context.AssetClasses) > 0 {
		return an.Context.AssetClasses[0]
	}
	return "tu inversión"
}

func generateGreeting(req Request) Response {
	var b strings.Builder
	b.WriteString("¡Hola! Soy tu asistente de finanzas personales. ")
	if req.Analysis.IsFirstMessage {
		b.WriteString("Puedo explicarte conceptos de inversión, revisar tu portafolio o ayudarte a armar un plan. ¿Por dónde empezamos?")
	} else {
		b.WriteString("¿En qué seguimos?")
	}
	return Response{
		Message:  b.String(),
		Type:     TypeGreeting,
		Priority: PriorityNormal,
		FollowUpQuestions: []string{
			"¿Qué es un ETF y cómo funciona?",
			"¿Cómo está mi diversificación?",
			"¿Cómo armo un plan de largo plazo?",
		},
	}
}

func generateCrisis(req Request) Response {
	var b strings.Builder
	b.WriteString("Entiendo que esto se siente alarmante, y es válido que estés así. Respira: ")
	b.WriteString("las caídas fuertes son parte de los mercados y vender en pánico suele convertir una pérdida temporal en una definitiva.\n\n")
	b.WriteString("Antes de mover nada, revisemos juntos tres cosas: ")
	b.WriteString("1) cuánto cayó realmente tu portafolio frente al mercado, ")
	b.WriteString("2) si tu horizonte de inversión cambió (la caída no lo cambia por sí sola), y ")
	b.WriteString("3) si necesitas ese dinero en los próximos meses.")
	if fin := req.Financial; fin != nil && fin.PortfolioValue > 0 {
		fmt.Fprintf(&b, "\n\nTu portafolio vale hoy %s. Ese es el punto de partida real, no el máximo que llegó a tener.",
			formatAmount(fin.PortfolioValue, fin.Currency))
	}
	return Response{
		Message:          b.String(),
		Type:             TypeCrisis,
		Priority:         PriorityCritical,
		EmotionalSupport: true,
		DataInformed:     req.Financial != nil,
		FollowUpQuestions: []string{
			"¿Revisamos cuánto cayó tu portafolio frente al mercado?",
			"¿Necesitas ese dinero en los próximos 12 meses?",
		},
	}
}

func generateAnxiety(req Request) Response {
	var b strings.Builder
	b.WriteString("Es normal sentir preocupación cuando hay dinero de por medio; que lo digas ya es un buen primer paso. ")
	b.WriteString("La ansiedad financiera casi siempre baja cuando el plan es concreto: un monto, un plazo y una regla clara para no decidir en caliente.\n\n")
	b.WriteString("Cuéntame qué es exactamente lo que más te preocupa y lo convertimos en un número que podamos revisar.")
	return Response{
		Message:          b.String(),
		Type:             TypeAnxiety,
		Priority:         PriorityHigh,
		EmotionalSupport: true,
		FollowUpQuestions: []string{
			"¿Qué escenario es el que más te preocupa?",
			"¿Quieres fijar una regla para decidir sin estrés?",
		},
	}
}

func generateUncertainty(req Request) Response {
	var b strings.Builder
	b.WriteString("No tener todo claro es el estado normal de cualquier inversionista honesto. ")
	b.WriteString("Para avanzar no necesitas certeza total, solo el siguiente paso bien definido.\n\n")
	b.WriteString("Dime entre qué opciones estás dudando y las ponemos lado a lado con sus pros, contras y riesgos.")
	return Response{
		Message:          b.String(),
		Type:             TypeUncertainty,
		Priority:         PriorityNormal,
		EmotionalSupport: true,
		RequiresClarity:  true,
		FollowUpQuestions: []string{
			"¿Entre qué opciones estás dudando?",
			"¿Qué dato te falta para decidir?",
		},
	}
}

func generateStrategic(req Request) Response {
	var b strings.Builder
	b.WriteString("Pensar a largo plazo es la decisión que más rendimiento suele pagar. Un plan sólido tiene tres piezas: ")
	b.WriteString("una meta con monto y fecha, un aporte periódico automático, y una mezcla de activos acorde a tu tolerancia al riesgo.\n\n")
	switch req.Analysis.Context.Timeframe {
	case analyzer.TimeframeLong:
		b.WriteString("Con un horizonte largo, la volatilidad de corto plazo importa poco: lo que domina es la constancia del aporte y el interés compuesto.")
	case analyzer.TimeframeShort:
		b.WriteString("Ojo: mencionas un plazo corto. Para metas cercanas conviene priorizar estabilidad sobre rendimiento.")
	default:
		b.WriteString("Si me dices tu plazo aproximado, ajustamos la mezcla de activos a esa distancia.")
	}
	return Response{
		Message:           b.String(),
		Type:              TypeStrategic,
		Priority:          PriorityNormal,
		FollowUpQuestions: req.Analysis.PredictedFollowUps,
	}
}

func generateDiagnostic(req Request) Response {
	var b strings.Builder
	b.WriteString("Revisemos cómo está tu portafolio. ")
	if fin := req.Financial; fin != nil {
		if fin.PortfolioValue > 0 {
			fmt.Fprintf(&b, "Hoy vale %s. ", formatAmount(fin.PortfolioValue, fin.Currency))
		}
		if top, weight := topSector(fin.SectorWeights); top != "" {
			fmt.Fprintf(&b, "Tu mayor concentración es %s con %.1f%% del total", top, weight)
			if weight > 40 {
				b.WriteString(" — es un peso alto para un solo sector y conviene vigilarlo")
			}
			b.WriteString(". ")
		}
		if fin.Volatility > 0 {
			fmt.Fprintf(&b, "La volatilidad anualizada es %.1f%%", fin.Volatility)
			if fin.SharpeRatio > 0 {
				fmt.Fprintf(&b, " con un ratio de Sharpe de %.2f", fin.SharpeRatio)
			}
			b.WriteString(".")
		}
	} else {
		b.WriteString("No tengo cifras de tu portafolio en esta conversación; cuando las compartas puedo señalarte concentraciones y riesgos concretos.")
	}
	return Response{
		Message:           b.String(),
		Type:              TypeDiagnostic,
		Priority:          PriorityNormal,
		DataInformed:      req.Financial != nil,
		RequiresClarity:   req.Financial == nil,
		FollowUpQuestions: req.Analysis.PredictedFollowUps,
	}
}

func generateComparative(req Request) Response {
	var b strings.Builder
	switch registerFor(req.Analysis.KnowledgeLevel) {
	case registerBeginner:
		b.WriteString("Para comparar dos opciones sin perderte, usa solo tres preguntas: ¿cuánto cuesta tenerla (comisiones)?, ")
		b.WriteString("¿cuánto puede caer en un mal año?, y ¿qué tan fácil es vender si necesitas el dinero? ")
		b.WriteString("La opción \"mejor\" es la que puedas mantener sin venderla en pánico.")
	case registerAdvanced:
		b.WriteString("Comparemos con métricas: costo total anual, tracking error si son indexados, liquidez del libro, ")
		b.WriteString("y rendimiento ajustado por riesgo (Sharpe) en ventanas de 3 y 5 años. ")
		b.WriteString("Dos activos con el mismo retorno esperado se separan rápido cuando miras drawdown máximo y correlación con el resto de tu cartera.")
	default:
		b.WriteString("Para comparar bien conviene una pequeña matriz: rendimiento histórico, comisiones, riesgo (qué tanto varía) ")
		b.WriteString("y liquidez. Rara vez hay una opción dominante; suele ser un intercambio entre costo y estabilidad.")
	}
	return Response{
		Message:           b.String(),
		Type:              TypeComparative,
		Priority:          PriorityNormal,
		FollowUpQuestions: req.Analysis.PredictedFollowUps,
	}
}

func generateEducational(req Request) Response {
	var b strings.Builder
	subj := subject(req.Analysis)
	switch registerFor(req.Analysis.KnowledgeLevel) {
	case registerBeginner:
		fmt.Fprintf(&b, "Vamos con calma y sin tecnicismos sobre %s. ", subj)
		b.WriteString("La idea central: invertir es comprar una parte de algo que produce valor con el tiempo, y el riesgo es que ese valor varíe en el camino. ")
		b.WriteString("Cualquier término que no te suene, dímelo y lo bajamos a un ejemplo cotidiano.")
	case registerAdvanced:
		fmt.Fprintf(&b, "Sobre %s, te doy el marco completo: estructura, costos implícitos y el perfil de riesgo que introduce en una cartera. ", subj)
		b.WriteString("Si quieres profundizar en la mecánica (réplica, spreads, tratamiento fiscal), entramos al detalle.")
	default:
		fmt.Fprintf(&b, "Te explico %s con un nivel medio de detalle: qué es, cómo genera rendimiento y qué riesgos concretos trae. ", subj)
		b.WriteString("Con un ejemplo numérico suele quedar claro; pídemelo si te sirve.")
	}
	return Response{
		Message:           b.String(),
		Type:              TypeEducational,
		Priority:          PriorityNormal,
		FollowUpQuestions: req.Analysis.PredictedFollowUps,
	}
}

func generateAnalytical(req Request) Response {
	var b strings.Builder
	b.WriteString("Para un análisis útil hay que mirar rendimiento y riesgo juntos, nunca por separado. ")
	if fin := req.Financial; fin != nil && (fin.Volatility > 0 || fin.SharpeRatio > 0) {
		fmt.Fprintf(&b, "Con tus cifras actuales — volatilidad %.1f%%, Sharpe %.2f — ", fin.Volatility, fin.SharpeRatio)
		if fin.SharpeRatio >= 1 {
			b.WriteString("el rendimiento está compensando bien el riesgo asumido.")
		} else {
			b.WriteString("estás asumiendo más riesgo del que el rendimiento actual compensa; vale la pena revisar la mezcla.")
		}
	} else {
		b.WriteString("Las métricas clave: retorno anualizado, volatilidad, ratio de Sharpe y concentración por sector. ")
		b.WriteString("Comparte tus cifras y las interpretamos juntas.")
	}
	return Response{
		Message:           b.String(),
		Type:              TypeAnalytical,
		Priority:          PriorityNormal,
		DataInformed:      req.Financial != nil,
		FollowUpQuestions: req.Analysis.PredictedFollowUps,
	}
}

func generateAdvisory(req Request) Response {
	var b strings.Builder
	switch registerFor(req.Analysis.KnowledgeLevel) {
	case registerBeginner:
		b.WriteString("Antes de recomendarte algo necesito dos datos tuyos: para cuándo quieres el dinero y cuánto aguantas verlo bajar sin angustiarte. ")
		b.WriteString("Con eso, la respuesta casi siempre empieza igual: fondo de emergencia primero, deudas caras después, y luego inversión periódica en algo diversificado.")
	case registerAdvanced:
		b.WriteString("Puedo darte un marco de decisión, no una orden de compra: define tu asignación objetivo por clase de activo, ")
		b.WriteString("compara lo que tienes contra ella, y deja que la distancia a la meta — no el titular del día — dicte los movimientos.")
	default:
		b.WriteString("Mi sugerencia general: decide primero el destino (meta y plazo) y después el vehículo. ")
		b.WriteString("Un portafolio diversificado con aportes automáticos le gana a la mayoría de las decisiones puntuales \"inteligentes\".")
	}
	if contains(req.Analysis.LatentNeeds, analyzer.NeedConcentrationWarning) {
		b.WriteString("\n\nUna alerta: mencionas poner una parte muy grande de tu dinero en una sola cosa. Concentrar así multiplica tanto la ganancia posible como la pérdida posible; ninguna inversión merece el dinero que no puedes permitirte perder.")
	}
	return Response{
		Message:           b.String(),
		Type:              TypeAdvisory,
		Priority:          PriorityNormal,
		FollowUpQuestions: req.Analysis.PredictedFollowUps,
	}
}

func generateSpeculative(req Request) Response {
	var b strings.Builder
	b.WriteString("Nadie — ni yo, ni ningún analista — puede predecir con fiabilidad hacia dónde va un precio en el corto plazo. ")
	b.WriteString("Lo que sí se puede hacer es prepararse para varios escenarios: decidir de antemano cuánto expones, qué harías si sube y qué harías si cae. ")
	if contains(req.Analysis.Assumptions, analyzer.AssumptionAbsolute) {
		b.WriteString("\n\nOjo con el \"siempre\" y el \"seguro\": los mercados han castigado cada certeza absoluta que ha existido. Ningún activo sube siempre.")
	}
	return Response{
		Message:           b.String(),
		Type:              TypeSpeculative,
		Priority:          PriorityNormal,
		FollowUpQuestions: []string{
			"¿Cuánto de tu portafolio expondrías a este escenario?",
			"¿Qué harías si cae 30% después de comprar?",
		},
	}
}

func generatePhilosophical(req Request) Response {
	var b strings.Builder
	b.WriteString("Buena pregunta de fondo. El dinero no es la meta: es la opción de elegir — en qué trabajas, dónde vives, cuánto tiempo dedicas a lo que te importa. ")
	b.WriteString("Invertir bien es comprarle opciones a tu yo futuro, no acumular por acumular. ")
	b.WriteString("Vale la pena definir qué significa \"suficiente\" para ti; sin esa cifra, ninguna cantidad tranquiliza.")
	return Response{
		Message:  b.String(),
		Type:     TypePhilosophical,
		Priority: PriorityLow,
		FollowUpQuestions: []string{
			"¿Qué te daría tranquilidad financiera concreta?",
			"¿Quieres ponerle número a tu \"suficiente\"?",
		},
	}
}

// conversationalPrompts rotate deterministically with the turn counter
// so repeated fallbacks do not repeat the same line.
var conversationalPrompts = []string{
	"Cuéntame un poco más: ¿esto es sobre una inversión que ya tienes o una que estás considerando?",
	"¿Te ayudo con un concepto, con tu portafolio, o con un plan hacia una meta?",
	"Puedo ser más útil con un dato concreto: ¿qué monto o qué activo tienes en mente?",
	"¿Quieres que lo veamos con números o prefieres la idea general primero?",
}

func generateConversational(req Request) Response {
	idx := 0
	if req.Session != nil {
		idx = req.Session.Flow.Turns % len(conversationalPrompts)
	}
	return Response{
		Message:         conversationalPrompts[idx],
		Type:            TypeConversational,
		Priority:        PriorityLow,
		RequiresClarity: true,
	}
}

func formatAmount(v float64, currency string) string {
	if currency == "" {
		currency = "MXN"
	}
	whole := fmt.Sprintf("%.2f", v)
	intPart, decPart, _ := strings.Cut(whole, ".")
	// Insert thousands separators right-to-left.
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)
	return fmt.Sprintf("$%s.%s %s", strings.Join(groups, ","), decPart, currency)
}

// topSector returns the heaviest sector and its weight, or "" when the
// map is empty. Ties resolve alphabetically for determinism.
func topSector(weights map[string]float64) (string, float64) {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	var top string
	var max float64
	for _, name := range names {
		if weights[name] > max {
			top = name
			max = weights[name]
		}
	}
	return top, max
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
