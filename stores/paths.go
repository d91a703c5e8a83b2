package stores

import "net/url"

func escape(id ID) string {
	return url.PathEscape(string(id))
}

func versionsPath(projectID ID) string {
	return projectPath(projectID) + "/versions"
}

func ticketsPath(projectID, versionID ID) string {
	return versionsPath(projectID) + "/" + escape(versionID) + "/tickets"
}

func bugsPath(projectID ID) string {
	return projectPath(projectID) + "/bugs"
}

func campaignsPath(projectID ID) string {
	return projectPath(projectID) + "/campaigns"
}

func epicsPath(projectID ID) string {
	return projectPath(projectID) + "/repository/epics"
}

func featuresPath(projectID, epicID ID) string {
	return epicsPath(projectID) + "/" + escape(epicID) + "/features"
}

func scenariosPath(projectID, epicID, featureID ID) string {
	return featuresPath(projectID, epicID) + "/" + escape(featureID) + "/scenarios"
}

func importCSVPath(projectID ID) string {
	return projectPath(projectID) + "/repository/import-csv"
}

func userPath(userID ID) string {
	return "/users/" + escape(userID)
}
