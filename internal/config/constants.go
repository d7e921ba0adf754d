package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "Pronaf Monitor"
	AppVersion = "1.0.0"

	BrowserTitle = "Central de Monitoramento - Zona da Mata/MG"
	PageTitle    = "Monitoramento de Impacto - Agricultura Familiar (Zona da Mata/MG)"
	PageCaption  = "Central estratégica para monitorar exposição econômica, priorizar municípios e " +
		"apoiar decisões emergenciais de alocação de recursos públicos."
	PageIcon = "📊"

	// Network Timeouts
	DefaultGeoTimeout = 30 * time.Second
	DefaultDataFile   = "data/df_merged.csv"

	DefaultBoundariesURL = "https://raw.githubusercontent.com/tbrugz/geodata-br/master/geojson/geojs-31-mun.json"

	// Downloads
	ExportCSVFileName  = "monitoramento_impacto_zona_mata.csv"
	ExportXLSXFileName = "monitoramento_impacto_zona_mata.xlsx"
	ExportCSVMimeType  = "text/csv"
	ExportXLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Source column names. They must match the dataset header byte for byte.
const (
	ColMunicipality     = "Município"
	ColIBGECode         = "Código IBGE"
	ColImmediateRegion  = "Região Geográfica Imediata (2022)"
	ColCAFIndividual    = "CAFs PF ATIVO"
	ColCAFLegalEntity   = "CAFs PJ ATIVO"
	ColWomenActive      = "QUANTIDADE DE MULHERES EM CAF ATIVO"
	ColMenActive        = "QUANTIDADE DE HOMENS EM CAF ATIVO"
	ColFamilyFarmers    = "Quantidade de Agricultores Familiares"
	ColOperations       = "Operações em 2025"
	ColCredit           = "Crédito Pronaf em 2025 (R$)"
)

// DeclaredColumns is the full set of columns the dashboard reads, in the
// order they are appended when absent from a source file.
var DeclaredColumns = []string{
	ColMunicipality,
	ColIBGECode,
	ColImmediateRegion,
	ColCAFIndividual,
	ColCAFLegalEntity,
	ColWomenActive,
	ColMenActive,
	ColFamilyFarmers,
	ColOperations,
	ColCredit,
}

// NumericColumns are coerced to numbers and zero-filled by the cleaner.
var NumericColumns = []string{
	ColCAFIndividual,
	ColCAFLegalEntity,
	ColWomenActive,
	ColMenActive,
	ColFamilyFarmers,
	ColOperations,
	ColCredit,
}

// IntegerColumns are additionally rounded to whole counts.
var IntegerColumns = []string{
	ColCAFIndividual,
	ColCAFLegalEntity,
	ColWomenActive,
	ColMenActive,
	ColFamilyFarmers,
}

// Choropleth and chart presentation
const (
	MapCenterLat   = -20.75
	MapCenterLon   = -42.85
	MapZoom        = 6.2
	MapOpacity     = 0.7
	MapStyle       = "carto-positron"
	MapColorScale  = "YlOrRd"
	ConcentrationN = 10
	ScatterSizeMax = 45

	WomenLabel = "Mulheres"
	MenLabel   = "Homens"
	WomenColor = "#d1495b"
	MenColor   = "#00798c"
	DonutHole  = 0.6
)

// Section headings
const (
	SidebarHeader        = "Filtros Estratégicos"
	RegionFilterLabel    = "Região Geográfica Imediata (2022)"
	MunicipalityLabel    = "Município"
	SectionKPIs          = "Indicadores Estratégicos (Visão Macro)"
	SectionVulnerability = "Vulnerabilidade Econômica Municipal"
	SectionDemographics  = "Perfil Demográfico e Detalhamento"
	SectionTable         = "Base Filtrada de Municípios"
	ExportCSVLabel       = "Exportar dados filtrados em CSV"
	ExportXLSXLabel      = "Exportar dados filtrados em Excel"
)

// Chart titles and axis labels
const (
	MapTitle           = "Mapa da Região - Total de Agricultores Familiares Atingidos"
	MapValueLabel      = "Agricultores Atingidos"
	ConcentrationTitle = "Concentração do Crédito Pronaf em Risco"
	ScatterTitle       = "Matriz de Vulnerabilidade Econômica Municipal"
	ScatterRegionLabel = "Região Imediata"
	DonutTitle         = "Distribuição de Gênero - CAF Ativo"
	CurrencyTickPrefix = "R$ "
)

// KPI labels
const (
	KPIFamilyFarmersLabel = "Total de Agricultores Familiares Atingidos"
	KPICreditLabel        = "Volume Financeiro Total do Pronaf em Risco"
	KPIWomenLabel         = "Total de Mulheres com CAF Ativo"
	KPIMunicipalityLabel  = "Número de Municípios Selecionados"
)

// User-facing messages
const (
	MsgDataFileNotFound = "Arquivo não encontrado: %s"
	MsgNoRecords        = "Nenhum registro encontrado para os filtros selecionados."
	MsgNothingToPlot    = "Os registros selecionados não têm valores para este gráfico."
	MsgMapFallback      = "Não foi possível carregar o mapa geográfico no momento. Exibindo o ranking de concentração de crédito."
)

// HTTP endpoints
const (
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
