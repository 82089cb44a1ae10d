package catalog

import "github.com/phleb-loss-tracker/internal/domain"

// CurrentSchemaVersion is the config schema version this build reads and writes.
const CurrentSchemaVersion = 2

// defaultConfig is the generic US inpatient catalog shipped with the service.
// Tube sizes and panel-to-tube mappings vary by lab; institutions are expected to
// import their own catalog.
var defaultConfig = domain.Config{
	SchemaVersion: CurrentSchemaVersion,
	Institution: domain.Institution{
		Name:  "Generic US Inpatient Defaults",
		Notes: "Defaults are generic. Tube sizes and panel-to-tube mapping vary by lab and supply chain. Edit in Settings when available.",
	},
	EBVPresets: []domain.EBVPreset{
		{ID: "preterm", Label: "Preterm neonate", MlPerKg: 95, Pediatric: true},
		{ID: "term", Label: "Term neonate", MlPerKg: 85, Pediatric: true},
		{ID: "infant", Label: "Infant", MlPerKg: 75, Pediatric: true},
		{ID: "child", Label: "Child", MlPerKg: 72, Pediatric: true},
		{ID: "adult", Label: "Adult", MlPerKg: 70},
	},
	Tubes: []domain.Tube{
		{ID: "sst_3_5", Label: "Gold top (SST) 3.5 mL", Ml: 3.5, Family: "Serum"},
		{ID: "sst_5", Label: "Gold top (SST) 5 mL", Ml: 5.0, Family: "Serum"},
		{ID: "red_5", Label: "Red top (serum) 5 mL", Ml: 5.0, Family: "Serum"},
		{ID: "green_3", Label: "Green top (heparin) 3 mL", Ml: 3.0, Family: "Plasma"},
		{ID: "green_5", Label: "Green top (heparin) 5 mL", Ml: 5.0, Family: "Plasma"},
		{ID: "edta_3", Label: "Purple top (EDTA) 3 mL", Ml: 3.0, Family: "Heme"},
		{ID: "edta_4", Label: "Purple top (EDTA) 4 mL", Ml: 4.0, Family: "Heme"},
		{ID: "blue_2_7", Label: "Light blue (citrate) 2.7 mL", Ml: 2.7, Family: "Coags"},
		{ID: "blue_4_5", Label: "Light blue (citrate) 4.5 mL", Ml: 4.5, Family: "Coags"},
		{ID: "gray_2", Label: "Gray top (fluoride/oxalate) 2 mL", Ml: 2.0, Family: "GlycolysisInhibitor"},
		{ID: "pink_6", Label: "Pink top (blood bank EDTA) 6 mL", Ml: 6.0, Family: "BloodBank"},
		{ID: "pink_4", Label: "Pink top (blood bank EDTA) 4 mL", Ml: 4.0, Family: "BloodBank"},
		{ID: "bcx_aerobic", Label: "Blood culture bottle (aerobic) 10 mL", Ml: 10.0, Family: "Culture"},
		{ID: "bcx_anaerobic", Label: "Blood culture bottle (anaerobic) 10 mL", Ml: 10.0, Family: "Culture"},
		{ID: "bcx_peds", Label: "Peds blood culture bottle 1 mL", Ml: 1.0, Family: "Culture"},
		{ID: "abg_syringe_1", Label: "ABG syringe 1 mL", Ml: 1.0, Family: "BloodGas"},
		{ID: "vbg_syringe_1", Label: "VBG syringe 1 mL", Ml: 1.0, Family: "BloodGas"},
		{ID: "micro_0_6", Label: "Microtainer 0.6 mL", Ml: 0.6, Family: "Micro"},
		{ID: "peds_sst_1_1", Label: "Peds SST 1.1 mL", Ml: 1.1, Family: "Serum"},
		{ID: "peds_edta_0_5", Label: "Peds EDTA 0.5 mL", Ml: 0.5, Family: "Heme"},
		{ID: "peds_blue_1_8", Label: "Peds citrate 1.8 mL", Ml: 1.8, Family: "Coags"},
		{ID: "urine_cup", Label: "Urine specimen cup (0 mL blood)", Ml: 0.0, Family: "NonBlood"},
		{ID: "swab", Label: "Swab (0 mL blood)", Ml: 0.0, Family: "NonBlood"},
	},
	Orderables: []domain.Orderable{
		{ID: "cbc", Label: "CBC", Category: "Hematology", Requirements: []domain.Requirement{{TubeID: "edta_3", Count: 1}}},
		{ID: "cbc_diff", Label: "CBC w/ diff", Category: "Hematology", Requirements: []domain.Requirement{{TubeID: "edta_3", Count: 1}}},
		{ID: "retic", Label: "Reticulocyte count", Category: "Hematology", Requirements: []domain.Requirement{{TubeID: "edta_3", Count: 1}}},
		{ID: "bmp", Label: "BMP", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "cmp", Label: "CMP", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "renal", Label: "Renal function panel", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "hepatic", Label: "Hepatic function panel", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "mg", Label: "Magnesium", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "phos", Label: "Phosphorus", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "ptinr", Label: "PT/INR", Category: "Coagulation", Requirements: []domain.Requirement{{TubeID: "blue_2_7", Count: 1}}},
		{ID: "ptt", Label: "aPTT", Category: "Coagulation", Requirements: []domain.Requirement{{TubeID: "blue_2_7", Count: 1}}},
		{ID: "ptinr_ptt", Label: "PT/INR + aPTT", Category: "Coagulation", Requirements: []domain.Requirement{{TubeID: "blue_2_7", Count: 1}}},
		{ID: "fibrinogen", Label: "Fibrinogen", Category: "Coagulation", Requirements: []domain.Requirement{{TubeID: "blue_2_7", Count: 1}}},
		{ID: "ddimer", Label: "D-dimer", Category: "Coagulation", Requirements: []domain.Requirement{{TubeID: "blue_2_7", Count: 1}}},
		{ID: "crp", Label: "CRP", Category: "Inflammation", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "esr", Label: "ESR", Category: "Inflammation", Requirements: []domain.Requirement{{TubeID: "edta_3", Count: 1}}},
		{ID: "procal", Label: "Procalcitonin", Category: "Inflammation", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "tsh", Label: "TSH", Category: "Endocrine", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "ft4", Label: "Free T4", Category: "Endocrine", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "tsh_ft4", Label: "TSH + Free T4", Category: "Endocrine", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "a1c", Label: "Hemoglobin A1c", Category: "Endocrine", Requirements: []domain.Requirement{{TubeID: "edta_3", Count: 1}}},
		{ID: "beta_hydroxy", Label: "Beta-hydroxybutyrate", Category: "Endocrine", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "glucose_serum", Label: "Glucose (serum)", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "glucose_poc", Label: "Glucose (POC, no blood loss logged)", Category: "Chemistry", Requirements: []domain.Requirement{}},
		{ID: "troponin", Label: "Troponin", Category: "Cardiac", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "bnp", Label: "BNP / NT-proBNP", Category: "Cardiac", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "lipid", Label: "Lipid panel", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "iron_panel", Label: "Fe panel (Iron/TIBC/%Sat)", Category: "Anemia", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "ferritin", Label: "Ferritin", Category: "Anemia", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "b12", Label: "Vitamin B12", Category: "Nutrition", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "folate", Label: "Folate", Category: "Nutrition", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "vitd", Label: "25-OH Vitamin D", Category: "Nutrition", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "ldh", Label: "LDH", Category: "Hematology", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "haptoglobin", Label: "Haptoglobin", Category: "Hematology", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "bilirubin_total", Label: "Bilirubin total", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "bilirubin_direct", Label: "Bilirubin direct", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "vanc_trough", Label: "Vancomycin level (trough/random)", Category: "DrugLevels", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "gent_level", Label: "Gentamicin level", Category: "DrugLevels", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "tobra_level", Label: "Tobramycin level", Category: "DrugLevels", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "phenytoin", Label: "Phenytoin level", Category: "DrugLevels", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "valproate", Label: "Valproate level", Category: "DrugLevels", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "carbamazepine", Label: "Carbamazepine level", Category: "DrugLevels", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "tacrolimus", Label: "Tacrolimus level", Category: "DrugLevels", Requirements: []domain.Requirement{{TubeID: "edta_3", Count: 1}}},
		{ID: "abg", Label: "ABG", Category: "BloodGas", Requirements: []domain.Requirement{{TubeID: "abg_syringe_1", Count: 1}}},
		{ID: "vbg", Label: "VBG", Category: "BloodGas", Requirements: []domain.Requirement{{TubeID: "vbg_syringe_1", Count: 1}}},
		{ID: "lactate", Label: "Lactate (gray top)", Category: "BloodGas", Requirements: []domain.Requirement{{TubeID: "gray_2", Count: 1}}},
		{ID: "blood_cx_set", Label: "Blood cultures (set: aerobic + anaerobic)", Category: "Microbiology", Requirements: []domain.Requirement{{TubeID: "bcx_aerobic", Count: 1}, {TubeID: "bcx_anaerobic", Count: 1}}},
		{ID: "blood_cx_single", Label: "Blood culture (single bottle)", Category: "Microbiology", Requirements: []domain.Requirement{{TubeID: "bcx_aerobic", Count: 1}}},
		{ID: "blood_cx_peds", Label: "Blood culture (peds bottle)", Category: "Microbiology", Requirements: []domain.Requirement{{TubeID: "bcx_peds", Count: 1}}},
		{ID: "urine_cx", Label: "Urine culture (no blood loss)", Category: "Microbiology", Requirements: []domain.Requirement{{TubeID: "urine_cup", Count: 1}}},
		{ID: "rpp", Label: "Respiratory pathogen panel (swab, no blood loss)", Category: "Microbiology", Requirements: []domain.Requirement{{TubeID: "swab", Count: 1}}},
		{ID: "type_screen", Label: "Type & screen", Category: "BloodBank", Requirements: []domain.Requirement{{TubeID: "pink_6", Count: 1}}},
		{ID: "type_cross", Label: "Type & crossmatch", Category: "BloodBank", Requirements: []domain.Requirement{{TubeID: "pink_6", Count: 1}}},
		{ID: "ana", Label: "ANA", Category: "Rheumatology", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "rf", Label: "Rheumatoid factor", Category: "Rheumatology", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "ccp", Label: "Anti-CCP", Category: "Rheumatology", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "c3_c4", Label: "Complement C3/C4", Category: "Rheumatology", Requirements: []domain.Requirement{{TubeID: "sst_3_5", Count: 1}}},
		{ID: "cbc_micro", Label: "CBC (micro)", Category: "Hematology", Requirements: []domain.Requirement{{TubeID: "peds_edta_0_5", Count: 1}}},
		{ID: "cmp_peds_sst", Label: "CMP (peds SST)", Category: "Chemistry", Requirements: []domain.Requirement{{TubeID: "peds_sst_1_1", Count: 1}}},
		{ID: "coags_peds", Label: "PT/INR + aPTT (peds citrate)", Category: "Coagulation", Requirements: []domain.Requirement{{TubeID: "peds_blue_1_8", Count: 1}}},
	},
	Bundles: []domain.Bundle{
		{ID: "daily_am_basic", Label: "Daily AM labs (CBC + BMP)", Includes: []string{"cbc", "bmp"}},
		{ID: "daily_am_full", Label: "Daily AM labs (CBC + CMP)", Includes: []string{"cbc", "cmp"}},
		{ID: "sepsis_eval", Label: "Sepsis eval (CBC + CMP + CRP + Procal + Blood cx set + Lactate)", Includes: []string{"cbc", "cmp", "crp", "procal", "blood_cx_set", "lactate"}},
		{ID: "anemia_workup", Label: "Anemia workup (CBC + Retic + Fe panel + Ferritin + B12 + Folate)", Includes: []string{"cbc", "retic", "iron_panel", "ferritin", "b12", "folate"}},
	},
	Thresholds: domain.Thresholds{
		PedsDailyMlPerKgWarn:      3.0,
		AdultHighIntensityDailyMl: 30.0,
	},
	UI: map[string]any{
		"defaultOrderableCategoryOrder": []any{
			"Hematology",
			"Chemistry",
			"Coagulation",
			"Inflammation",
			"Endocrine",
			"Cardiac",
			"DrugLevels",
			"BloodGas",
			"Microbiology",
			"BloodBank",
			"Rheumatology",
			"Nutrition",
		},
	},
}
