package components

// FieldDescriptor describes a report field for output sinks.
type FieldDescriptor struct {
	ID     string // Column name, matches the csv tag on Report
	Label  string // Display name
	Unit   string
	Format string // Printf format (e.g., "%.2f")
	Group  string // Logical grouping
}

// ReportFieldDescriptors returns metadata for the numeric Report fields.
// Field IDs must match cases in GetReportValue().
func ReportFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "shoot_dm", Label: "Shoot DM", Unit: "kg/ha", Format: "%.1f", Group: "dm"},
		{ID: "root_dm", Label: "Root DM", Unit: "kg/ha", Format: "%.1f", Group: "dm"},
		{ID: "leaf_dm", Label: "Leaf DM", Unit: "kg/ha", Format: "%.1f", Group: "dm"},
		{ID: "stem_dm", Label: "Stem DM", Unit: "kg/ha", Format: "%.1f", Group: "dm"},
		{ID: "stolon_dm", Label: "Stolon DM", Unit: "kg/ha", Format: "%.1f", Group: "dm"},
		{ID: "green_dm", Label: "Green DM", Unit: "kg/ha", Format: "%.1f", Group: "dm"},
		{ID: "dead_dm", Label: "Dead DM", Unit: "kg/ha", Format: "%.1f", Group: "dm"},

		{ID: "shoot_n", Label: "Shoot N", Unit: "kg/ha", Format: "%.2f", Group: "n"},
		{ID: "root_n", Label: "Root N", Unit: "kg/ha", Format: "%.2f", Group: "n"},
		{ID: "leaf_n_conc", Label: "Green leaf N", Unit: "kg/kg", Format: "%.4f", Group: "n"},
		{ID: "n_uptake", Label: "N uptake", Unit: "kg/ha", Format: "%.3f", Group: "n"},
		{ID: "n_fixed", Label: "N fixed", Unit: "kg/ha", Format: "%.3f", Group: "n"},
		{ID: "n_defoliated", Label: "N defoliated", Unit: "kg/ha", Format: "%.3f", Group: "n"},

		{ID: "growth_potential", Label: "Potential growth", Unit: "kg/ha", Format: "%.2f", Group: "growth"},
		{ID: "growth_wstress", Label: "Water-limited growth", Unit: "kg/ha", Format: "%.2f", Group: "growth"},
		{ID: "growth_actual", Label: "Actual growth", Unit: "kg/ha", Format: "%.2f", Group: "growth"},
		{ID: "growth_effective", Label: "Effective growth", Unit: "kg/ha", Format: "%.2f", Group: "growth"},
		{ID: "litter", Label: "Litter", Unit: "kg/ha", Format: "%.2f", Group: "growth"},
		{ID: "root_senesced", Label: "Root senescence", Unit: "kg/ha", Format: "%.2f", Group: "growth"},
		{ID: "defoliated", Label: "Defoliated", Unit: "kg/ha", Format: "%.1f", Group: "growth"},

		{ID: "water_demand", Label: "Water demand", Unit: "mm", Format: "%.2f", Group: "water"},
		{ID: "water_uptake", Label: "Water uptake", Unit: "mm", Format: "%.2f", Group: "water"},

		{ID: "glf_temp", Label: "Temperature factor", Format: "%.3f", Group: "limits"},
		{ID: "glf_water", Label: "Water factor", Format: "%.3f", Group: "limits"},
		{ID: "glf_n", Label: "N factor", Format: "%.3f", Group: "limits"},
		{ID: "heat_effect", Label: "Heat effect", Format: "%.3f", Group: "limits"},
		{ID: "cold_effect", Label: "Cold effect", Format: "%.3f", Group: "limits"},

		{ID: "intercepted_radn", Label: "Intercepted radiation", Unit: "MJ/m2", Format: "%.2f", Group: "canopy"},
		{ID: "lai_green", Label: "Green LAI", Unit: "m2/m2", Format: "%.2f", Group: "canopy"},
		{ID: "cover_green", Label: "Green cover", Format: "%.3f", Group: "canopy"},
		{ID: "height", Label: "Height", Unit: "mm", Format: "%.0f", Group: "canopy"},
		{ID: "root_depth", Label: "Root depth", Unit: "mm", Format: "%.0f", Group: "canopy"},
		{ID: "digestibility", Label: "Digestibility", Format: "%.3f", Group: "canopy"},
	}
}

// ReportGroups returns the logical groupings for report fields.
func ReportGroups() []string {
	return []string{"dm", "n", "growth", "water", "limits", "canopy"}
}

// FieldByID looks up a report field descriptor.
func FieldByID(id string) (FieldDescriptor, bool) {
	for _, f := range ReportFieldDescriptors() {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// GetReportValue extracts a report field value by ID.
func GetReportValue(r *Report, fieldID string) float64 {
	switch fieldID {
	case "shoot_dm":
		return r.ShootDM
	case "root_dm":
		return r.RootDM
	case "leaf_dm":
		return r.LeafDM
	case "stem_dm":
		return r.StemDM
	case "stolon_dm":
		return r.StolonDM
	case "green_dm":
		return r.GreenDM
	case "dead_dm":
		return r.DeadDM
	case "shoot_n":
		return r.ShootN
	case "root_n":
		return r.RootN
	case "leaf_n_conc":
		return r.LeafNConc
	case "n_uptake":
		return r.NUptake
	case "n_fixed":
		return r.NFixed
	case "n_defoliated":
		return r.NDefoliated
	case "growth_potential":
		return r.GrowthPotential
	case "growth_wstress":
		return r.GrowthWstress
	case "growth_actual":
		return r.GrowthActual
	case "growth_effective":
		return r.GrowthEffective
	case "litter":
		return r.Litter
	case "root_senesced":
		return r.RootSenesced
	case "defoliated":
		return r.Defoliated
	case "water_demand":
		return r.WaterDemand
	case "water_uptake":
		return r.WaterUptake
	case "glf_temp":
		return r.GLFTemp
	case "glf_water":
		return r.GLFWater
	case "glf_n":
		return r.GLFN
	case "heat_effect":
		return r.HeatEffect
	case "cold_effect":
		return r.ColdEffect
	case "intercepted_radn":
		return r.InterceptedRadn
	case "lai_green":
		return r.LAIGreen
	case "cover_green":
		return r.CoverGreen
	case "height":
		return r.Height
	case "root_depth":
		return r.RootDepth
	case "digestibility":
		return r.Digestibility
	default:
		return 0
	}
}
