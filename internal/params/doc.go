// Package params assembles the DAO environment for a document build.
//
// Every DAO is instantiated with its template options merged over an
// environment of defaults. The environment is layered, lowest precedence
// first:
//
//   - the database section of metafmt.yaml
//   - values read from --env-file files (godotenv format)
//   - --dao-opt key=value pairs
//   - the document selectors (--experiment, --model, --submodel, --project)
//
// # Example Usage
//
//	opts, err := params.ParseKeyValuePairs(daoOpts)
//	if err != nil {
//	    return err
//	}
//	env := params.Layer(cfg.Database.Environment(), envFiles, opts, selectors.Map())
package params
