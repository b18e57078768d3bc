package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchContactsTool = mcp.NewTool("search_contacts",
	mcp.WithDescription("Search the directory of AI referents and reference contacts."),
	mcp.WithString("query",
		mcp.Description("Text matched against name, organization, region and description"),
	),
	mcp.WithString("contact_type",
		mcp.Description(`Contact type to filter on; "Tous" or empty returns every type`),
	),
)

var listAIToolsTool = mcp.NewTool("list_ai_tools",
	mcp.WithDescription("List the AI tools referenced by the portal."),
	mcp.WithString("category",
		mcp.Description(`Category to filter on; "Tous" or empty returns every category`),
	),
	mcp.WithBoolean("sovereign_only",
		mcp.Description("Only return sovereign tools"),
	),
)

var listTrainingCoursesTool = mcp.NewTool("list_training_courses",
	mcp.WithDescription("List the AI training courses available to referents."),
	mcp.WithString("level",
		mcp.Description("Course level"),
		mcp.Enum("Tous", "débutant", "intermédiaire", "avancé"),
	),
)

var getPageTool = mcp.NewTool("get_page",
	mcp.WithDescription("Get the markdown content of an informational page of the portal (missions, ethique, chartes, glossaire...)."),
	mcp.WithString("slug",
		mcp.Required(),
		mcp.Description("Page slug"),
	),
)
