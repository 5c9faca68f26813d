package crem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/metafmt/internal/dao"
	"github.com/vvka-141/metafmt/internal/files/filesystem"
	"github.com/vvka-141/metafmt/internal/store/csvstore"
	"github.com/vvka-141/metafmt/pkg/metafmt"
)

// cremDump is a small CREM dump: the HadGEM2-ES historical experiment of
// CMIP5 with its runs, requirements, conformances, components and grids.
var cremDump = map[string]string{
	"tblactivity.csv": "idtblactivity,shortname\n" +
		"1,CMIP5\n",
	"tblexperiment.csv": "idexperiment,activityid,shortname,name,description,ensembleType,contactid\n" +
		"100,1,historical,historical HadGEM2-ES,Historical run &amp; more,2,8\n" +
		"101,1,historical,historical HadCM3,,1,\n" +
		"102,1,rcp45,rcp45 HadGEM2-ES,,1,\n" +
		"103,1,rcp45,rcp45 HadGEM2-ES-CC,,1,\n",
	"tblsimulation.csv": "idtblsimulation,experimentid,modelid,simulationStartDate,simulationEndDate,ensembleInit,ensembleInitType,ensemblePerturb,shortname,name\n" +
		"1000,100,1,1859-12-01 00:00:00,2005-11-30 00:00:00,1,1,1,historical_r1i1p1,Historical r1\n" +
		"1001,100,1,1859-12-01 00:00:00,2005-12-30 00:00:00,2,1,1,historical_r2i1p1,Historical r2\n" +
		"1002,100,1,1860-12-01 00:00:00,2006-12-30 00:00:00,3,1,1,historical_r3i1p1,Late start\n" +
		"1003,102,1,2005-12-01 00:00:00,2100-11-30 00:00:00,1,1,1,rcp45_r1i1p1,RCP4.5 r1\n" +
		"1004,102,2,2005-12-01 00:00:00,2100-11-30 00:00:00,2,1,1,rcp45_r2i1p1,RCP4.5 r2\n",
	"tblmodelrun.csv": "simulation,runCalendar\n" +
		"1000,360_day\n" +
		"1001,360_day\n" +
		"1002,360_day\n" +
		"1003,360_day\n" +
		"1004,gregorian\n",
	"tblmodel.csv": "idtblmodel,shortname,name,description,releaseDate,gridsystemid,contactid\n" +
		"1,HadGEM2-ES,Hadley Global Environment Model 2 - Earth System,\"Line one\r\n\r\n\r\n\r\nLine two\",2009-03-01,50,7\n" +
		"2,HadCM3,Hadley Centre Coupled Model 3,,,51,\n",
	"tblmodelcomponent.csv": "idtModelComponent,parentComponentID,modelID,level,name,description,type,contactid\n" +
		"10,NULL,1,1,Atmosphere,Atmosphere component,Atmosphere,7\n" +
		"11,NULL,1,1,Ocean,,Ocean,\n" +
		"12,10,1,2,Aerosols,,AtmosphericChemistry,\n",
	"tblattribute.csv": "idattribute,componentid,name,definition,units,value\n" +
		"200,10,Atmosphere:Dynamics:TimeStep,Model time step,s,1800\n" +
		"201,10,Atmosphere:Levels,Vertical levels,,\"38, 60\"\n" +
		"202,10,Atmosphere:Unset,,,\n",
	"tblindividual.csv": "idperson,fullName,email,address,organisation,city,adminArea,postcode,country\n" +
		"7,Jane Doe,jane@example.org,FitzRoy Road,300,Exeter,Devon,EX1 3PB,UK\n" +
		"8,John Roe,,,,,,,\n",
	"tblorganisation.csv": "idorganisation,name,weblink\n" +
		"300,Met Office,http://www.metoffice.gov.uk\n",
	"tblreferencelist.csv": "objectType,objectID,referenceID\n" +
		"MODEL,1,400\n" +
		"SIMULATION,100,401\n",
	"tblreference.csv": "idtblCitation,citation,date,fullReference,weblink\n" +
		"400,Collins et al. (2011) Development and evaluation of an Earth-System model,2011,\"Geosci. Model Dev., 4\",http://doi.org/10.5194/gmd-4-1051-2011\n" +
		"401,Jones et al. (2011),in press,,\n",
	"tblrequirements.csv": "id,type,name,description,includes\n" +
		"500,initial,Pre-industrial initial state,Spun-up state,\"historical, piControl\"\n" +
		"501,forcing,Historical GHG,,historical\n" +
		"502,spatiotemp,Historical period,,historical\n" +
		"503,forcing,RCP4.5 GHG,,rcp45\n" +
		"504,bogus,Broken,,amip\n",
	"tblconformance.csv": "id,experimentid,requirementid,noncompliance,method,compliance\n" +
		"600,100,500,,Via Inputs,Initialised from piControl\n" +
		"601,100,501,,Via Inputs,\n" +
		"602,100,502,1,Code Modification,Truncated\n",
	"tblconformancill.csv": "conformanceid,experimentid,ancillaryid\n" +
		"601,100,700\n" +
		"601,100,701\n",
	"tblancillary.csv": "id,shortname,description\n" +
		"700,CO2,Carbon dioxide concentrations\n" +
		"701,CH4,\n",
	"tblcodelist.csv": "type,code,codeDesc\n" +
		"ensembletype,1,Perturbed Physics\n" +
		"ensembletype,2,Initial Condition\n",
	"tblgridsystem.csv": "idgridsystem,ShortName,LongName,Description\n" +
		"50,N96,N96 grid system,\n",
	"tblgridset.csv": "idgridset,idgridsystem,ShortName,LongName,Description\n" +
		"60,50,ATM,Atmosphere grid,\n" +
		"61,50,OCN,Ocean grid,\n",
	"tblgrid.csv": "idgrid,idgridset,ShortName,LongName,Description,isUniform,isRegular\n" +
		"70,60,N96-T,Atmosphere T grid,,1,1\n" +
		"71,60,N96-UV,,,0,1\n",
}

// historical are the selectors of the fixture's main document.
var historical = map[string]string{
	OptExperiment: "historical",
	OptModel:      "HadGEM2-ES",
	OptProject:    "CMIP5",
}

func newTestSite(t *testing.T) *dao.Site {
	t.Helper()
	mfs := filesystem.NewMemoryFileSystem("/crem")
	for name, content := range cremDump {
		mfs.AddFile(name, content)
	}
	s, err := csvstore.Open(mfs, "/crem")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewSite(s)
}

func newDAO(t *testing.T, site *dao.Site, daoType string, opts map[string]string) metafmt.DAO {
	t.Helper()
	factory, ok := site.Lookup(daoType)
	require.True(t, ok, "no DAO %s", daoType)
	d, err := factory(metafmt.NewParams(opts))
	require.NoError(t, err)
	return d
}

type built struct {
	inst metafmt.Instance
	md   metafmt.Metadata
}

// expand drives d the way the walker does under container.
func expand(t *testing.T, d metafmt.DAO, c metafmt.Constraint, container metafmt.Instance) ([]built, error) {
	t.Helper()
	ctx := context.Background()
	base := metafmt.Params{}
	if aware, ok := d.(metafmt.ContainerAware); ok && container != nil {
		var err error
		if base, err = aware.ContainerMetadata(container); err != nil {
			return nil, err
		}
	}
	records, err := d.Expand(ctx, c, base)
	if err != nil {
		return nil, err
	}
	var out []built
	for _, p := range records {
		inst := d.Bind(p)
		md, err := inst.Metadata(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, built{inst: inst, md: md})
	}
	return out, nil
}

// one expands d and requires a single instance.
func one(t *testing.T, d metafmt.DAO, c metafmt.Constraint, container metafmt.Instance) built {
	t.Helper()
	got, err := expand(t, d, c, container)
	require.NoError(t, err)
	require.Len(t, got, 1)
	return got[0]
}

func attr(b []built, name string) []interface{} {
	out := make([]interface{}, len(b))
	for i, x := range b {
		out[i] = x.md[name]
	}
	return out
}
