package config

import "github.com/amishk599/screener/internal/model"

// DefaultPresets returns the job descriptions offered when the config file
// defines none.
func DefaultPresets() []model.Preset {
	return []model.Preset{
		{
			Title: "Senior Backend Engineer (Go)",
			Description: `Senior Backend Engineer (Go)

We are looking for a backend engineer to design and operate high-throughput services.

Responsibilities:
- Build and maintain Go microservices behind gRPC and REST APIs
- Own service reliability: monitoring, alerting, incident response
- Design PostgreSQL schemas and optimise queries
- Mentor engineers through code review and design discussions

Requirements:
- 5+ years of backend development, 2+ years with Go
- Strong grasp of concurrency and distributed systems
- Experience with Kubernetes, Docker and a major cloud provider
- Clear written communication`,
		},
		{
			Title: "Frontend Developer (React)",
			Description: `Frontend Developer (React)

Join our product team to build fast, accessible web interfaces.

Responsibilities:
- Develop features in React and TypeScript
- Collaborate with designers on component libraries
- Write unit and end-to-end tests
- Improve performance and accessibility

Requirements:
- 3+ years building production React applications
- Solid HTML, CSS and modern JavaScript
- Familiarity with REST and GraphQL APIs
- Experience with testing tools such as Jest or Playwright`,
		},
		{
			Title: "Data Scientist",
			Description: `Data Scientist

We need a data scientist to turn product data into decisions.

Responsibilities:
- Build and validate predictive models
- Design and analyse A/B experiments
- Present findings to product and leadership teams

Requirements:
- Degree in a quantitative field
- Strong Python and SQL; experience with pandas and scikit-learn
- Solid statistics background
- Ability to explain technical results to non-technical audiences`,
		},
		{
			Title: "Product Manager",
			Description: `Product Manager

Lead the roadmap for a customer-facing SaaS product.

Responsibilities:
- Gather customer and stakeholder requirements
- Write clear product specs and prioritise the backlog
- Work with engineering and design through delivery
- Define and track success metrics

Requirements:
- 4+ years of product management in software
- Track record of shipping products customers use
- Comfortable with data analysis and user research
- Excellent communication skills`,
		},
		{
			Title: "DevOps Engineer",
			Description: `DevOps Engineer

Help our engineering teams ship safely and often.

Responsibilities:
- Maintain CI/CD pipelines and infrastructure as code
- Operate Kubernetes clusters and observability tooling
- Improve the cost and reliability of cloud infrastructure

Requirements:
- 3+ years in DevOps or SRE roles
- Terraform, Kubernetes and one major cloud provider
- Scripting in Bash, Python or Go
- Experience with on-call and incident management`,
		},
	}
}
