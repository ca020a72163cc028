package dispatch

import "github.com/lucasreyna/plata-advisor/internal/analyzer"

// defaultDisclaimers covers the recommendation-adjacent query types.
// Any handler answering one of these must ship a non-empty disclaimer;
// ensureDisclaimer fills it in when the generator omits one.
var defaultDisclaimers = map[analyzer.QueryType]string{
	analyzer.QueryAdvisory:    "Esto es información educativa, no asesoría financiera personalizada. Considera tu situación completa o consulta a un asesor certificado antes de decidir.",
	analyzer.QueryStrategic:   "Los planes de largo plazo aquí descritos son orientativos. Rendimientos pasados no garantizan rendimientos futuros.",
	analyzer.QueryAnalytical:  "Las métricas se interpretan sobre datos históricos y no predicen resultados futuros. Úsalas como referencia, no como garantía.",
	analyzer.QuerySpeculative: "Ninguna proyección de precios es fiable. No inviertas con base en predicciones dinero que no puedas permitirte perder.",
}

// ensureDisclaimer applies the disclaimer invariant: responses in a
// recommendation-adjacent context never leave the dispatcher without
// one.
func ensureDisclaimer(resp Response, qt analyzer.QueryType) Response {
	if resp.Disclaimer != "" {
		return resp
	}
	if d, ok := defaultDisclaimers[qt]; ok {
		resp.Disclaimer = d
	}
	return resp
}
