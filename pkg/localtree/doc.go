// Package localtree builds the catalog from results already on disk.
//
// The root holds one directory per species, named by its code:
//
//	root/
//	  species.csv            optional species_code,species_name table
//	  ABCD/
//	    ABCD.json            optional {"species_name": "..."}
//	    ABCD.zip             optional archive, becomes zip_url
//	    ABCD_PI_occurrence.png
//
// Image URLs are the configured base URL joined with the path under root.
package localtree
