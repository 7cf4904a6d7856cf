// Package demo provides a small built-in catalog used when no data
// directory or database is configured.
package demo

import (
	"github.com/pavelanni/chemquiz/internal/catalog"
	"github.com/pavelanni/chemquiz/internal/model"
)

// OptionCount is the number of answer options the demo uses per quiz.
const OptionCount = 4

func compound(iupac, common, local, skeletal, molecular, smiles string) model.Compound {
	return model.Compound{
		IUPACName:        iupac,
		CommonName:       common,
		LocalName:        local,
		SkeletalFormula:  skeletal,
		MolecularFormula: molecular,
		SMILES:           smiles,
	}
}

func path(segments ...string) []string { return segments }

func entries() []model.CatalogEntry {
	primary := path("Organic", "Aliphatic_compounds", "Alcohols_and_ethers", "Primary_alcohols")
	acids := path("Organic", "Aliphatic_compounds", "Carboxylic_acids_and_esters", "Carboxylic_acids")
	aromatics := path("Organic", "Aromatic_compounds", "Aromatic_hydrocarbons")
	alkynes := path("Organic", "Aliphatic_compounds", "Hydrocarbons", "Alkynes")
	alkanes := path("Organic", "Aliphatic_compounds", "Hydrocarbons", "Alkanes")

	return []model.CatalogEntry{
		{Compound: compound("methanol", "methyl alcohol", "メタノール", "CH3OH", "CH4O", "CO"), Categories: primary},
		{Compound: compound("ethanol", "ethyl alcohol", "エタノール", "CH3-CH2-OH", "C2H6O", "CCO"), Categories: primary},
		{
			Compound:   compound("propan-2-ol", "isopropyl alcohol", "イソプロパノール", "(CH3)2CHOH", "C3H8O", "CC(O)C"),
			Categories: path("Organic", "Aliphatic_compounds", "Alcohols_and_ethers", "Secondary_alcohols"),
		},
		{Compound: compound("ethanoic acid", "acetic acid", "酢酸", "CH3COOH", "C2H4O2", "CC(=O)O"), Categories: acids},
		{Compound: compound("propanoic acid", "propionic acid", "プロピオン酸", "CH3-CH2-COOH", "C3H6O2", "CCC(=O)O"), Categories: acids},
		{Compound: compound("benzene", "", "ベンゼン", "C6H6", "C6H6", "c1ccccc1"), Categories: aromatics},
		{Compound: compound("methylbenzene", "toluene", "トルエン", "C6H5-CH3", "C7H8", "Cc1ccccc1"), Categories: aromatics},
		{Compound: compound("ethyne", "acetylene", "アセチレン", "HC≡CH", "C2H2", "C#C"), Categories: alkynes},
		{Compound: compound("but-2-yne", "dimethylacetylene", "2-ブチン", "CH3-C≡C-CH3", "C4H6", "CC#CC"), Categories: alkynes},
		{Compound: compound("2-methylpropane", "isobutane", "イソブタン", "(CH3)2CH-CH3", "C4H10", "CC(C)C"), Categories: alkanes},
		{Compound: compound("hexane", "", "ヘキサン", "CH3-(CH2)4-CH3", "C6H14", "CCCCCC"), Categories: alkanes},
		{
			Compound:   compound("propane-1,2,3-triol", "glycerol", "グリセリン", "HO-CH2-CH(OH)-CH2-OH", "C3H8O3", "OCC(O)CO"),
			Categories: path("Organic", "Aliphatic_compounds", "Alcohols_and_ethers", "Polyols"),
		},
		{
			Compound:   compound("sodium chloride", "table salt", "塩化ナトリウム", "NaCl", "NaCl", "Cl[Na]"),
			Categories: path("Inorganic", "Salts", "Halides"),
		},
		{
			Compound:   compound("calcium carbonate", "calcite", "炭酸カルシウム", "CaCO3", "CaCO3", "[Ca+2].[O-]C(=O)[O-]"),
			Categories: path("Inorganic", "Salts", "Carbonates"),
		},
	}
}

// Compounds returns the demo compounds without their categories.
func Compounds() []model.Compound {
	es := entries()
	out := make([]model.Compound, len(es))
	for i, e := range es {
		out[i] = e.Compound
	}
	return out
}

// Catalog returns the demo compounds indexed by category.
func Catalog() *catalog.Catalog {
	return catalog.New(entries())
}
